package mr_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"browsercouch/map_reduce/mr"
)

var errBroken = errors.New("broken disk")

// memSource is a fixed, read-only document source.
type memSource struct {
	ids  []string
	docs map[string]mr.Document
	fail string
}

func newSource(docs ...mr.Document) *memSource {
	s := &memSource{docs: map[string]mr.Document{}}
	for _, d := range docs {
		s.ids = append(s.ids, d.ID())
		s.docs[d.ID()] = d
	}
	return s
}

func (s *memSource) Keys() []string {
	return s.ids
}

func (s *memSource) Get(id string) (mr.Document, error) {
	if id == s.fail {
		return nil, errBroken
	}
	d, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("no document %q", id)
	}
	return d, nil
}

func wordMap(doc mr.Document, emit func(string, int)) error {
	for _, w := range strings.Fields(doc["content"].(string)) {
		emit(w, 1)
	}
	return nil
}

func sumReduce(keys []mr.KeyDoc[string], values []int) (int, error) {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum, nil
}

func basicSource() *memSource {
	return newSource(
		mr.Document{"id": "monkey", "content": "hello there dude"},
		mr.Document{"id": "chunky", "content": "hello there dogen"},
	)
}

// randomSource builds n documents over a small lexicon, inserted with
// ids in descending order so enumeration order differs from id order.
func randomSource(n int) (*memSource, int) {
	rnd := rand.New(rand.NewSource(1))
	lexicon := []string{"apple", "pear", "fig", "kiwi", "lime", "plum", "date"}
	var docs []mr.Document
	total := 0
	for i := n - 1; i >= 0; i-- {
		words := make([]string, 1+rnd.Intn(8))
		for j := range words {
			words[j] = lexicon[rnd.Intn(len(lexicon))]
		}
		total += len(words)
		docs = append(docs, mr.Document{
			"id":      fmt.Sprintf("doc-%02d", i),
			"content": strings.Join(words, " "),
		})
	}
	return newSource(docs...), total
}

func TestBasicReduce(t *testing.T) {
	view, err := mr.Compute(context.Background(), basicSource(), mr.Options[string, int]{
		Map:    wordMap,
		Reduce: sumReduce,
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []mr.Row[string, int]{
		{Key: "dogen", Value: 1},
		{Key: "dude", Value: 1},
		{Key: "hello", Value: 2},
		{Key: "there", Value: 2},
	}
	if got := view.Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if !view.Reduced() {
		t.Error("view should be reduced")
	}
	if pos := view.FindRow("hello"); pos != 2 {
		t.Errorf("FindRow(hello) = %d, want 2", pos)
	}
}

func TestBasicMapOnly(t *testing.T) {
	view, err := mr.Compute(context.Background(), basicSource(), mr.Options[string, int]{
		Map: wordMap,
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []mr.Row[string, int]{
		{ID: "chunky", Key: "dogen", Value: 1},
		{ID: "monkey", Key: "dude", Value: 1},
		{ID: "chunky", Key: "hello", Value: 1},
		{ID: "monkey", Key: "hello", Value: 1},
		{ID: "chunky", Key: "there", Value: 1},
		{ID: "monkey", Key: "there", Value: 1},
	}
	if got := view.Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if view.Reduced() {
		t.Error("view should not be reduced")
	}
	for key, pos := range map[string]int{"dogen": 0, "dude": 1, "hello": 2, "there": 4} {
		if got := view.FindRow(key); got != pos {
			t.Errorf("FindRow(%s) = %d, want %d", key, got, pos)
		}
	}
}

func TestReduceSeesEmissions(t *testing.T) {
	got := map[string][]mr.KeyDoc[string]{}
	reduce := func(keys []mr.KeyDoc[string], values []int) (int, error) {
		got[keys[0].Key] = keys
		if len(keys) != len(values) {
			t.Errorf("%d keys but %d values", len(keys), len(values))
		}
		return len(values), nil
	}
	_, err := mr.Compute(context.Background(), basicSource(), mr.Options[string, int]{
		Map:    wordMap,
		Reduce: reduce,
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []mr.KeyDoc[string]{{Key: "hello", ID: "monkey"}, {Key: "hello", ID: "chunky"}}
	if !reflect.DeepEqual(got["hello"], want) {
		t.Errorf("hello pairs = %v, want %v", got["hello"], want)
	}
	if len(got) != 4 {
		t.Errorf("reduce called for %d keys, want 4", len(got))
	}
}

func TestEmptySource(t *testing.T) {
	never := func(doc mr.Document, emit func(string, int)) error {
		t.Error("map called on empty source")
		return nil
	}
	neverReduce := func(keys []mr.KeyDoc[string], values []int) (int, error) {
		t.Error("reduce called on empty source")
		return 0, nil
	}
	for _, reduce := range []mr.ReduceFunc[string, int]{nil, neverReduce} {
		view, err := mr.Compute(context.Background(), newSource(), mr.Options[string, int]{
			Map:    never,
			Reduce: reduce,
		})
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if view.Len() != 0 {
			t.Errorf("empty source gave %d rows", view.Len())
		}
		if pos := view.FindRow("anything"); pos != 0 {
			t.Errorf("FindRow on empty view = %d", pos)
		}
	}
}

func TestEmptyStartFinishesInline(t *testing.T) {
	finished := 0
	job, err := mr.Start(newSource(), mr.Options[string, int]{
		Map:      wordMap,
		Finished: func(view *mr.View[string, int]) { finished++ },
		Progress: func(phase mr.Phase, fraction float64, resume func()) {
			t.Error("progress called on empty source")
		},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if finished != 1 || !job.Done() {
		t.Errorf("finished=%d done=%v", finished, job.Done())
	}
}

func TestChunkingTransparency(t *testing.T) {
	src, total := randomSource(23)
	for _, reduce := range []mr.ReduceFunc[string, int]{nil, sumReduce} {
		var base []mr.Row[string, int]
		for _, chunk := range []int{1, 2, 5, 22, 23, 1000} {
			for _, workers := range []int{1, 2, 4} {
				view, err := mr.Compute(context.Background(), src, mr.Options[string, int]{
					Map:       wordMap,
					Reduce:    reduce,
					ChunkSize: chunk,
					Workers:   workers,
				})
				if err != nil {
					t.Fatalf("chunk %d workers %d: %v", chunk, workers, err)
				}
				rows := view.Rows()
				if base == nil {
					base = rows
					continue
				}
				if !reflect.DeepEqual(rows, base) {
					t.Errorf("chunk %d workers %d: rows differ", chunk, workers)
				}
			}
		}
		if reduce == nil && len(base) != total {
			t.Errorf("map-only view has %d rows, want %d emissions", len(base), total)
		}
	}
}

func TestOrderingAndFindRow(t *testing.T) {
	src, _ := randomSource(40)
	view, err := mr.Compute(context.Background(), src, mr.Options[string, int]{
		Map:       wordMap,
		ChunkSize: 7,
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	rows := view.Rows()
	for i := 1; i < len(rows); i++ {
		a, b := rows[i-1], rows[i]
		if a.Key > b.Key || (a.Key == b.Key && a.ID > b.ID) {
			t.Fatalf("rows %d and %d out of order: %v %v", i-1, i, a, b)
		}
	}
	for _, r := range rows {
		pos := view.FindRow(r.Key)
		if rows[pos].Key != r.Key || (pos > 0 && rows[pos-1].Key == r.Key) {
			t.Errorf("FindRow(%s) = %d is not the first row of the key", r.Key, pos)
		}
	}
	for _, key := range []string{"", "aaa", "banana", "grape", "zzz"} {
		pos := view.FindRow(key)
		for i, r := range rows {
			if i < pos && r.Key >= key {
				t.Errorf("FindRow(%q) = %d but row %d has key %s", key, pos, i, r.Key)
			}
			if i >= pos && r.Key < key {
				t.Errorf("FindRow(%q) = %d but row %d has key %s", key, pos, i, r.Key)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	src, _ := randomSource(30)
	opts := mr.Options[string, int]{Map: wordMap, Reduce: sumReduce, ChunkSize: 4}
	v1, err := mr.Compute(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := mr.Compute(context.Background(), src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v1.Rows(), v2.Rows()) {
		t.Error("repeated computations differ")
	}
}

func TestDeferredResume(t *testing.T) {
	var pending []func()
	var phases []mr.Phase
	var fractions []float64
	finished := 0
	var view *mr.View[string, int]

	job, err := mr.Start(basicSource(), mr.Options[string, int]{
		Map:       wordMap,
		Reduce:    sumReduce,
		ChunkSize: 1,
		Progress: func(phase mr.Phase, fraction float64, resume func()) {
			phases = append(phases, phase)
			fractions = append(fractions, fraction)
			pending = append(pending, resume)
		},
		Finished: func(v *mr.View[string, int]) {
			finished++
			view = v
		},
		OnError: func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if job.Done() || job.Phase() != mr.PhaseMap {
		t.Fatalf("job should be paused in map phase, done=%v phase=%s", job.Done(), job.Phase())
	}
	for len(pending) > 0 {
		resume := pending[0]
		pending = pending[1:]
		resume()
		// a second call of the same resume is ignored
		resume()
	}

	wantPhases := []mr.Phase{mr.PhaseMap, mr.PhaseReduce, mr.PhaseReduce, mr.PhaseReduce}
	if !reflect.DeepEqual(phases, wantPhases) {
		t.Errorf("phases = %v, want %v", phases, wantPhases)
	}
	wantFractions := []float64{0.5, 0.25, 0.5, 0.75}
	if !reflect.DeepEqual(fractions, wantFractions) {
		t.Errorf("fractions = %v, want %v", fractions, wantFractions)
	}
	if finished != 1 || !job.Done() {
		t.Fatalf("finished = %d, done = %v", finished, job.Done())
	}
	if view.Len() != 4 {
		t.Errorf("view has %d rows", view.Len())
	}
}

func TestResumeFromGoroutine(t *testing.T) {
	src, _ := randomSource(20)
	want, err := mr.Compute(context.Background(), src, mr.Options[string, int]{Map: wordMap, Reduce: sumReduce})
	if err != nil {
		t.Fatal(err)
	}
	got, err := mr.Compute(context.Background(), src, mr.Options[string, int]{
		Map:       wordMap,
		Reduce:    sumReduce,
		ChunkSize: 3,
		Progress: func(phase mr.Phase, fraction float64, resume func()) {
			go resume()
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Rows(), want.Rows()) {
		t.Error("rows differ when resuming from another goroutine")
	}
}

func TestManyInlineYields(t *testing.T) {
	docs := make([]mr.Document, 20000)
	for i := range docs {
		docs[i] = mr.Document{"id": fmt.Sprint(i), "content": "x"}
	}
	view, err := mr.Compute(context.Background(), newSource(docs...), mr.Options[string, int]{
		Map:       wordMap,
		Reduce:    sumReduce,
		ChunkSize: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if view.Len() != 1 || view.Row(0).Value != len(docs) {
		t.Errorf("rows = %v", view.Rows())
	}
}

func TestConfigErrors(t *testing.T) {
	finished := func(*mr.View[string, int]) {}
	tests := []struct {
		name string
		src  mr.Source
		opts mr.Options[string, int]
		want error
	}{
		{"no source", nil, mr.Options[string, int]{Map: wordMap, Finished: finished}, mr.ErrNoSource},
		{"no map", basicSource(), mr.Options[string, int]{Finished: finished}, mr.ErrNoMap},
		{"no finished", basicSource(), mr.Options[string, int]{Map: wordMap}, mr.ErrNoFinished},
		{"negative chunk", basicSource(), mr.Options[string, int]{Map: wordMap, Finished: finished, ChunkSize: -1}, mr.ErrChunkSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := mr.Start(tt.src, tt.opts)
			if job != nil {
				t.Error("job returned with a configuration error")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ce *mr.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("err %T is not a *ConfigError", err)
			}
		})
	}
}

func TestMapError(t *testing.T) {
	src := newSource(
		mr.Document{"id": "a", "content": "one"},
		mr.Document{"id": "b", "content": "two"},
		mr.Document{"id": "c", "content": "three"},
	)
	boom := errors.New("boom")
	var mapped []string
	finished, failed := 0, 0
	var gotErr error
	_, err := mr.Start(src, mr.Options[string, int]{
		ChunkSize: 1,
		Progress:  mr.Immediate,
		Map: func(doc mr.Document, emit func(string, int)) error {
			mapped = append(mapped, doc.ID())
			if doc.ID() == "b" {
				return boom
			}
			return nil
		},
		Reduce:   sumReduce,
		Finished: func(*mr.View[string, int]) { finished++ },
		OnError: func(err error) {
			failed++
			gotErr = err
		},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if finished != 0 || failed != 1 {
		t.Fatalf("finished=%d failed=%d, want exactly one error", finished, failed)
	}
	if !errors.Is(gotErr, boom) {
		t.Errorf("err = %v, want boom", gotErr)
	}
	var ce *mr.ComputeError
	if !errors.As(gotErr, &ce) || ce.Phase != mr.PhaseMap || ce.ID != "b" {
		t.Errorf("err = %#v, want map phase error for b", gotErr)
	}
	if !reflect.DeepEqual(mapped, []string{"a", "b"}) {
		t.Errorf("mapped %v after failure", mapped)
	}
}

func TestReduceError(t *testing.T) {
	_, err := mr.Compute(context.Background(), basicSource(), mr.Options[string, int]{
		Map: wordMap,
		Reduce: func(keys []mr.KeyDoc[string], values []int) (int, error) {
			if keys[0].Key == "hello" {
				return 0, errors.New("no greetings")
			}
			return 0, nil
		},
	})
	var ce *mr.ComputeError
	if !errors.As(err, &ce) || ce.Phase != mr.PhaseReduce || ce.Key != "hello" {
		t.Errorf("err = %v, want reduce phase error for hello", err)
	}
}

func TestPanicIsError(t *testing.T) {
	for _, workers := range []int{1, 3} {
		_, err := mr.Compute(context.Background(), basicSource(), mr.Options[string, int]{
			Workers: workers,
			Map: func(doc mr.Document, emit func(string, int)) error {
				panic("map exploded")
			},
		})
		if err == nil || !strings.Contains(err.Error(), "map exploded") {
			t.Errorf("workers %d: err = %v, want recovered panic", workers, err)
		}
	}
}

func TestStoreError(t *testing.T) {
	src := basicSource()
	src.fail = "chunky"
	_, err := mr.Compute(context.Background(), src, mr.Options[string, int]{Map: wordMap, Reduce: sumReduce})
	if !errors.Is(err, errBroken) {
		t.Errorf("err = %v, want store error", err)
	}
}

func TestComputeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := mr.Compute(ctx, basicSource(), mr.Options[string, int]{
		Map:       wordMap,
		ChunkSize: 1,
		Progress: func(phase mr.Phase, fraction float64, resume func()) {
			cancel()
			resume()
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	_, err = mr.Compute(ctx, basicSource(), mr.Options[string, int]{
		Map: func(doc mr.Document, emit func(string, int)) error {
			t.Error("map called with a canceled context")
			return nil
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	_, err := mr.Compute(context.Background(), basicSource(), mr.Options[string, int]{
		Map:    wordMap,
		Reduce: sumReduce,
		Logger: log.New(&buf, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "map phase done: 2 documents, 4 keys, 6 emissions") {
		t.Errorf("log = %q", buf.String())
	}
}

type lengths struct{}

func (lengths) Map(doc mr.Document, emit func(int, string)) error {
	for _, w := range strings.Fields(doc["content"].(string)) {
		emit(len(w), w)
	}
	return nil
}

func (lengths) Reduce(keys []mr.KeyDoc[int], values []string) (string, error) {
	return strings.Join(values, "+"), nil
}

func TestDefine(t *testing.T) {
	view, err := mr.Compute(context.Background(), basicSource(), mr.Define[int, string](lengths{}))
	if err != nil {
		t.Fatal(err)
	}
	want := []mr.Row[int, string]{
		{Key: 4, Value: "dude"},
		{Key: 5, Value: "hello+there+hello+there+dogen"},
	}
	if got := view.Rows(); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}
}
