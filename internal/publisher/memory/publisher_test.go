package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JakeFAU/school-portal-api/internal/school"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	event := school.StatusCheckEvent{
		Type:        school.EventStatusCheckCreated,
		StatusCheck: school.NewStatusCheck("id-1", "frontend", time.Unix(0, 0).UTC()),
	}
	id1, err := pub.Publish(context.Background(), school.EventStatusCheckCreated, event)
	if err != nil || id1 != "memory-1" {
		t.Fatalf("unexpected publish result id=%s err=%v", id1, err)
	}
	id2, err := pub.Publish(context.Background(), "other", "payload")
	if err != nil || id2 != "memory-2" {
		t.Fatalf("unexpected publish result id=%s err=%v", id2, err)
	}

	msgs := pub.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Topic != school.EventStatusCheckCreated || msgs[1].Topic != "other" {
		t.Fatalf("topics not recorded correctly: %+v", msgs)
	}
	if got, ok := msgs[0].Payload.(school.StatusCheckEvent); !ok || got.StatusCheck.ID != "id-1" {
		t.Fatalf("payload not recorded correctly: %+v", msgs[0].Payload)
	}

	msgs[0].Topic = "modified"
	if pub.Messages()[0].Topic == "modified" {
		t.Fatal("expected Messages() to return a copy")
	}
}

func TestPublisherFailWith(t *testing.T) {
	t.Parallel()

	pub := New()
	boom := errors.New("broker down")
	pub.FailWith(boom)
	if _, err := pub.Publish(context.Background(), "t", 1); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if len(pub.Messages()) != 0 {
		t.Fatal("failed publish must not be recorded")
	}

	pub.FailWith(nil)
	if _, err := pub.Publish(context.Background(), "t", 1); err != nil {
		t.Fatalf("expected publish to recover, got %v", err)
	}
}
