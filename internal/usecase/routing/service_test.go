package routing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alfred-cloud/alfred/internal/domain"
)

func TestRoute_NoCollections(t *testing.T) {
	advisor := &mockAdvisor{answer: "documentation"}
	svc := New(&mockLister{}, advisor)

	d := svc.Route(context.Background(), "how do I configure docker")

	if d.Route != domain.RouteGeneral {
		t.Fatalf("expected general route, got %q", d.Route)
	}
	if d.Reason != ReasonNoCollections {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
	if advisor.calls != 0 {
		t.Fatal("advisor must not be consulted when no collections exist")
	}
}

func TestRoute_AdvisorDocumentation(t *testing.T) {
	advisor := &mockAdvisor{answer: "Documentation"}
	svc := New(&mockLister{collections: []string{"alfred_knowledge", "docker_docs"}}, advisor)

	d := svc.Route(context.Background(), "Docker networking test")

	if d.Route != domain.RouteDocumentation {
		t.Fatalf("expected documentation route, got %q", d.Route)
	}
	if d.Collection != "docker_docs" {
		t.Fatalf("expected matched collection, got %q", d.Collection)
	}
	if d.Reason != ReasonAdvisor {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
	if len(d.AvailableCollections) != 2 {
		t.Fatalf("expected available collections carried, got %v", d.AvailableCollections)
	}
	if !strings.Contains(advisor.prompt, "alfred_knowledge, docker_docs") {
		t.Fatal("expected collection list in advisor prompt")
	}
	if !strings.Contains(advisor.prompt, "exactly one word") {
		t.Fatal("expected strict one-word contract in advisor prompt")
	}
}

func TestRoute_AdvisorGeneral(t *testing.T) {
	svc := New(
		&mockLister{collections: []string{"alfred_knowledge"}},
		&mockAdvisor{answer: "general"},
	)

	d := svc.Route(context.Background(), "write me a haiku")

	if d.Route != domain.RouteGeneral {
		t.Fatalf("expected general route, got %q", d.Route)
	}
	if d.Collection != "" {
		t.Fatalf("general decisions carry no collection, got %q", d.Collection)
	}
	if d.Reason != ReasonAdvisor {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}

func TestRoute_AdvisorErrorFallsBack(t *testing.T) {
	svc := New(
		&mockLister{collections: []string{"alfred_knowledge"}},
		&mockAdvisor{err: context.DeadlineExceeded},
	)

	d := svc.Route(context.Background(), "docker networking")

	if d.Route != domain.RouteDocumentation {
		t.Fatalf("expected documentation fallback, got %q", d.Route)
	}
	if !strings.Contains(d.Reason, "fallback") {
		t.Fatalf("expected fallback reason, got %q", d.Reason)
	}
	if d.Collection != "alfred_knowledge" {
		t.Fatalf("unexpected collection %q", d.Collection)
	}
}

func TestRoute_AdvisorAmbiguousFallsBack(t *testing.T) {
	svc := New(
		&mockLister{collections: []string{"alfred_knowledge"}},
		&mockAdvisor{answer: "maybe?"},
	)

	d := svc.Route(context.Background(), "docker networking")

	if d.Route != domain.RouteDocumentation {
		t.Fatalf("expected documentation fallback, got %q", d.Route)
	}
	if d.Reason != ReasonFallback {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}

// "documentation" contains checks run before "general": an answer holding
// both tokens routes to documentation.
func TestRoute_AdvisorBothTokens(t *testing.T) {
	svc := New(
		&mockLister{collections: []string{"alfred_knowledge"}},
		&mockAdvisor{answer: "documentation, not general"},
	)

	d := svc.Route(context.Background(), "docker networking")

	if d.Route != domain.RouteDocumentation {
		t.Fatalf("expected documentation route, got %q", d.Route)
	}
}

func TestRoute_ListerErrorRoutesGeneral(t *testing.T) {
	advisor := &mockAdvisor{answer: "documentation"}
	svc := New(&mockLister{err: errors.New("index down")}, advisor)

	d := svc.Route(context.Background(), "docker networking")

	if d.Route != domain.RouteGeneral {
		t.Fatalf("expected general route when collections are unknown, got %q", d.Route)
	}
	if d.Reason != ReasonNoCollections {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}
