package notify

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
)

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.got = append(r.got, n)
}

func TestFanoutDeliversToEach(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Fanout{a, nil, b}.Notify(context.Background(), New(KindSuccess, "c1", "saved"))
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("expected both recorders to receive, got %d/%d", len(a.got), len(b.got))
	}
	if a.got[0].Kind != KindSuccess || a.got[0].At.IsZero() {
		t.Fatalf("unexpected notification %+v", a.got[0])
	}
}

func TestRequestNotifierCollects(t *testing.T) {
	var n RequestNotifier
	n.Notify(context.Background(), New(KindError, "", "dropped"))

	ctx := WithCollector(context.Background())
	n.Notify(ctx, New(KindWarning, "", "first"))
	n.Notify(ctx, New(KindSuccess, "", "second"))

	got := Collected(ctx)
	if len(got) != 2 || got[0].Message != "first" || got[1].Kind != KindSuccess {
		t.Fatalf("unexpected collected %+v", got)
	}
	if Collected(context.Background()) != nil {
		t.Fatalf("context without collector must yield nil")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	NewLogNotifier(log.New(&buf, "", 0)).Notify(context.Background(), New(KindWarning, "anon-1", "please sign in"))
	if !strings.Contains(buf.String(), "warning owner=anon-1") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

func TestRoutingKey(t *testing.T) {
	if RoutingKey(KindError) != "notify.error" {
		t.Fatalf("unexpected routing key %q", RoutingKey(KindError))
	}
}
