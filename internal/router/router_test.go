package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MahMoudMostaAfa/azkar/internal/bus"
	"github.com/MahMoudMostaAfa/azkar/internal/coordinator"
	"github.com/MahMoudMostaAfa/azkar/internal/executor"
	"github.com/MahMoudMostaAfa/azkar/internal/session"
)

func TestDecode_AllCommands(t *testing.T) {
	tests := []struct {
		raw  string
		want Command
	}{
		{
			raw:  `{"cmd":"play","locator":"a.mp3","itemIndex":3}`,
			want: PlaySingle{Locator: "a.mp3", ItemIndex: 3},
		},
		{
			// Missing itemIndex defaults to -1.
			raw:  `{"cmd":"play","locator":"a.mp3"}`,
			want: PlaySingle{Locator: "a.mp3", ItemIndex: -1},
		},
		{
			raw:  `{"cmd":"stop"}`,
			want: StopSingle{},
		},
		{
			raw:  `{"cmd":"stopQueue"}`,
			want: StopQueue{},
		},
		{
			raw:  `{"cmd":"getState"}`,
			want: GetState{},
		},
	}

	for _, tt := range tests {
		got, err := Decode([]byte(tt.raw))
		if err != nil {
			t.Errorf("Decode(%s): %v", tt.raw, err)
			continue
		}
		switch want := tt.want.(type) {
		case PlaySingle:
			if got != want {
				t.Errorf("Decode(%s) = %+v, want %+v", tt.raw, got, want)
			}
		default:
			if got != tt.want {
				t.Errorf("Decode(%s) = %T, want %T", tt.raw, got, tt.want)
			}
		}
	}
}

func TestDecode_StartQueue(t *testing.T) {
	raw := `{"cmd":"startQueue","categoryKey":"morning","items":[
		{"locator":"a.mp3","label":"one","originalIndex":0},
		{"locator":"","label":"two","originalIndex":2}]}`

	cmd, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sq, ok := cmd.(StartQueue)
	if !ok {
		t.Fatalf("Decode = %T, want StartQueue", cmd)
	}
	if sq.CategoryKey != "morning" || len(sq.Items) != 2 {
		t.Errorf("StartQueue = %+v", sq)
	}
	if sq.Items[1].OriginalIndex != 2 || sq.Items[1].Label != "two" {
		t.Errorf("Items[1] = %+v", sq.Items[1])
	}
}

func TestDecode_UnknownCommand(t *testing.T) {
	_, err := Decode([]byte(`{"cmd":"selfDestruct"}`))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("err = %v, want ErrUnknownCommand", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Error("Decode of malformed input should fail")
	}
}

func newTestRouter(t *testing.T) (*Router, *session.Mock, *executor.Mock) {
	t.Helper()
	store := session.NewMock()
	exec := executor.NewMock()
	b := bus.New()
	t.Cleanup(b.Close)
	coord := coordinator.New(store, exec, nopScheduler{}, b, coordinator.DefaultPacing())
	return New(coord), store, exec
}

type nopScheduler struct{}

func (nopScheduler) Schedule(string, time.Duration) error { return nil }

func TestDispatch_PlayAndState(t *testing.T) {
	r, store, exec := newTestRouter(t)
	ctx := context.Background()

	reply, ok := r.Dispatch(ctx, PlaySingle{Locator: "a.mp3", ItemIndex: 2})
	if !ok {
		t.Fatal("Dispatch(PlaySingle) not handled")
	}
	if ack, _ := reply.(Ack); !ack.Success {
		t.Errorf("reply = %+v", reply)
	}
	if calls := exec.PlayCalls(); len(calls) != 1 || calls[0] != "a.mp3" {
		t.Errorf("PlayCalls = %v", calls)
	}

	reply, ok = r.Dispatch(ctx, GetState{})
	if !ok {
		t.Fatal("Dispatch(GetState) not handled")
	}
	snap, ok := reply.(bus.StateUpdate)
	if !ok {
		t.Fatalf("GetState reply = %T", reply)
	}
	if !snap.Playing || snap.SingleIndex != 2 {
		t.Errorf("snapshot = %+v", snap)
	}

	if s := store.Load(ctx); s.SingleIndex != 2 {
		t.Errorf("persisted SingleIndex = %d", s.SingleIndex)
	}
}

func TestDispatchRaw_RoundTrip(t *testing.T) {
	r, store, _ := newTestRouter(t)
	ctx := context.Background()

	reply, ok := r.DispatchRaw(ctx, []byte(
		`{"cmd":"startQueue","categoryKey":"evening","items":[{"locator":"a.mp3"}]}`))
	if !ok {
		t.Fatal("DispatchRaw not handled")
	}
	if ack, _ := reply.(Ack); !ack.Success {
		t.Errorf("reply = %+v", reply)
	}
	if s := store.Load(ctx); !s.QueueActive || s.QueueCategory != "evening" {
		t.Errorf("session = %+v", s)
	}
}

func TestDispatchRaw_UnknownIsSilent(t *testing.T) {
	r, store, exec := newTestRouter(t)
	ctx := context.Background()

	reply, ok := r.DispatchRaw(ctx, []byte(`{"cmd":"mystery"}`))
	if ok || reply != nil {
		t.Errorf("unknown command got a reply: %v", reply)
	}
	if s := store.Load(ctx); s.Playing || s.QueueActive {
		t.Errorf("unknown command mutated state: %+v", s)
	}
	if len(exec.PlayCalls()) != 0 || exec.StopCalls() != 0 {
		t.Error("unknown command reached the executor")
	}
}
