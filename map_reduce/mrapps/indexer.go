package mrapps

// 文本索引器，单词所在文档 id

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"browsercouch/map_reduce/mr"
)

type IndexerMapReduce struct {
}

// Map emits (word, id) once for every distinct word of the document.
func (x *IndexerMapReduce) Map(doc mr.Document, emit func(string, string)) error {
	text, err := content(doc)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if seen[w] {
			continue
		}
		seen[w] = true
		emit(w, doc.ID())
	}
	return nil
}

// Reduce returns "<count> id1,id2,..." with the ids sorted.
func (x *IndexerMapReduce) Reduce(keys []mr.KeyDoc[string], values []string) (string, error) {
	ids := append([]string(nil), values...)
	sort.Strings(ids)
	return fmt.Sprintf("%d %s", len(ids), strings.Join(ids, ",")), nil
}
