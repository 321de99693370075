package mrapps

//
// a word-count view: one (word, 1) pair per whitespace separated token of
// the document's content, summed per word.
//

import (
	"fmt"
	"strings"

	"browsercouch/map_reduce/mr"
)

type WcMapReduce struct {
}

// content returns the "content" field; a document without one has no words.
func content(doc mr.Document) (string, error) {
	switch c := doc["content"].(type) {
	case nil:
		return "", nil
	case string:
		return c, nil
	default:
		return "", fmt.Errorf("content is %T, not a string", c)
	}
}

func (w *WcMapReduce) Map(doc mr.Document, emit func(string, int)) error {
	text, err := content(doc)
	if err != nil {
		return err
	}
	for _, word := range strings.Fields(text) {
		emit(word, 1)
	}
	return nil
}

func (w *WcMapReduce) Reduce(keys []mr.KeyDoc[string], values []int) (int, error) {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum, nil
}
