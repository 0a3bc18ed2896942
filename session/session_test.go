package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/colloquy-ai/colloquy/core/protocol"
	"github.com/colloquy-ai/colloquy/session"
)

func newTurn(role session.Role, content string) session.Turn {
	return session.Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

func TestFileLogLoadAbsentIsEmpty(t *testing.T) {
	root := t.TempDir()
	log := session.NewFileLog(root)

	turns, err := log.Load(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("turns = %v, want empty", turns)
	}

	// First reference initializes the backing record.
	data, err := os.ReadFile(filepath.Join(root, "fresh.json"))
	if err != nil {
		t.Fatalf("backing record not created: %v", err)
	}
	var arr []session.Turn
	if err := json.Unmarshal(data, &arr); err != nil || len(arr) != 0 {
		t.Errorf("backing record = %s, want empty array", data)
	}
}

func TestFileLogAppendAndLoad(t *testing.T) {
	log := session.NewFileLog(t.TempDir())
	ctx := context.Background()

	user := newTurn(session.RoleUser, "hola")
	agent := newTurn(session.RoleAgent, "hello")
	if err := log.Append(ctx, "s1", user, agent); err != nil {
		t.Fatalf("append: %v", err)
	}

	turns, err := log.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len = %d, want 2", len(turns))
	}
	if turns[0].Role != session.RoleUser || turns[0].Content != "hola" {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Role != session.RoleAgent || turns[1].Content != "hello" {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestFileLogPairsStayOrdered(t *testing.T) {
	log := session.NewFileLog(t.TempDir())
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		if err := log.Append(ctx, "s",
			newTurn(session.RoleUser, "q"),
			newTurn(session.RoleAgent, "a"),
		); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	turns, err := log.Load(ctx, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(turns) != 2*n {
		t.Fatalf("len = %d, want %d", len(turns), 2*n)
	}
	for i, turn := range turns {
		want := session.RoleUser
		if i%2 == 1 {
			want = session.RoleAgent
		}
		if turn.Role != want {
			t.Errorf("turn %d role = %s, want %s", i, turn.Role, want)
		}
	}
}

func TestFileLogRoundTripBytes(t *testing.T) {
	root := t.TempDir()
	log := session.NewFileLog(root)
	ctx := context.Background()

	if err := log.Append(ctx, "rt",
		newTurn(session.RoleUser, "I bought a Citroën"),
		newTurn(session.RoleAgent, "nice <car> & all"),
	); err != nil {
		t.Fatalf("append: %v", err)
	}

	path := filepath.Join(root, "rt.json")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	turns, err := log.Load(ctx, "rt")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	after, err := session.MarshalTurns(turns)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !bytes.Equal(before, after) {
		t.Errorf("round trip differs:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestFileLogCorruptRecord(t *testing.T) {
	root := t.TempDir()
	log := session.NewFileLog(root)

	if err := os.WriteFile(filepath.Join(root, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := log.Load(context.Background(), "bad")
	if !errors.Is(err, session.ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestFileLogRejectsTraversalIDs(t *testing.T) {
	log := session.NewFileLog(t.TempDir())

	for _, id := range []string{"", "../evil", "a/b", ".hidden"} {
		if _, err := log.Load(context.Background(), id); !errors.Is(err, session.ErrInvalidID) {
			t.Errorf("Load(%q) err = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestFileLogClear(t *testing.T) {
	log := session.NewFileLog(t.TempDir())
	ctx := context.Background()

	if err := log.Append(ctx, "c", newTurn(session.RoleUser, "x")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Clear(ctx, "c"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	turns, err := log.Load(ctx, "c")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("turns after clear = %v", turns)
	}
}

func TestFileLogList(t *testing.T) {
	log := session.NewFileLog(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"alpha", "beta"} {
		if _, err := log.Load(ctx, id); err != nil {
			t.Fatalf("load %s: %v", id, err)
		}
	}

	ids, err := log.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"alpha", "beta"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestBuildMemory(t *testing.T) {
	now := time.Now()
	turns := []session.Turn{
		{Role: session.RoleUser, Content: "hi", Timestamp: now},
		{Role: session.RoleAgent, Content: "hello", Timestamp: now},
		{Role: "tool", Content: "ignored", Timestamp: now},
		{Role: session.RoleUser, Content: "bye", Timestamp: now},
	}

	msgs := session.BuildMemory(turns)
	want := []protocol.Message{
		protocol.NewMessage(protocol.RoleUser, "hi"),
		protocol.NewMessage(protocol.RoleAssistant, "hello"),
		protocol.NewMessage(protocol.RoleUser, "bye"),
	}
	if len(msgs) != len(want) {
		t.Fatalf("len = %d, want %d", len(msgs), len(want))
	}
	for i := range want {
		if msgs[i].Role != want[i].Role || msgs[i].Content != want[i].Content {
			t.Errorf("msg %d = %+v, want %+v", i, msgs[i], want[i])
		}
	}
}

func TestBuildMemoryEmpty(t *testing.T) {
	if msgs := session.BuildMemory(nil); len(msgs) != 0 {
		t.Errorf("msgs = %v, want empty", msgs)
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := session.NewKeyedMutex()

	var inCritical, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("same")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > max {
				max = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("max concurrent holders = %d, want 1", max)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := session.NewKeyedMutex()

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on independent key blocked")
	}
	unlockA()
}
