package mrapps

import (
	"context"
	"math/rand"
	"strconv"
	"strings"

	"browsercouch/map_reduce/mr"
	"browsercouch/store"
)

// PhaseMakeDocuments is reported while a corpus is generated.
const PhaseMakeDocuments mr.Phase = "make-documents"

// CorpusConfig sizes a random corpus.
type CorpusConfig struct {
	MaxWordLength     int
	LexiconSize       int
	MinDocumentLength int
	MaxDocumentLength int
	CorpusSize        int
	ChunkSize         int
}

func DefaultCorpusConfig() CorpusConfig {
	return CorpusConfig{
		MaxWordLength:     10,
		LexiconSize:       200,
		MinDocumentLength: 250,
		MaxDocumentLength: 500,
		CorpusSize:        1000,
		ChunkSize:         25,
	}
}

// between returns a random int in [lo, hi].
func between(rnd *rand.Rand, lo, hi int) int {
	return rnd.Intn(hi-lo+1) + lo
}

func makeWord(rnd *rand.Rand, maxLen int) string {
	n := between(rnd, 1, maxLen)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(byte(between(rnd, 'a', 'z')))
	}
	return sb.String()
}

func makeDocument(rnd *rand.Rand, lexicon []string, cfg CorpusConfig) string {
	n := between(rnd, cfg.MinDocumentLength, cfg.MaxDocumentLength)
	words := make([]string, n)
	for i := range words {
		words[i] = lexicon[rnd.Intn(len(lexicon))]
	}
	return strings.Join(words, " ")
}

//
// MakeCorpus fills db with cfg.CorpusSize random documents {id, content}
// drawn from a random lexicon. observe, if not nil, is told the fraction
// done after every cfg.ChunkSize documents. The documents are committed
// in one Put at the end.
//
func MakeCorpus(ctx context.Context, db *store.DB, cfg CorpusConfig, rnd *rand.Rand, observe func(phase mr.Phase, fraction float64)) error {
	lexicon := make([]string, cfg.LexiconSize)
	for i := range lexicon {
		lexicon[i] = makeWord(rnd, cfg.MaxWordLength)
	}
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = cfg.CorpusSize
	}

	docs := make([]mr.Document, 0, cfg.CorpusSize)
	for i := 0; i < cfg.CorpusSize; i++ {
		docs = append(docs, mr.Document{
			"id":      strconv.Itoa(i),
			"content": makeDocument(rnd, lexicon, cfg),
		})
		if (i+1)%chunk == 0 && i+1 < cfg.CorpusSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			if observe != nil {
				observe(PhaseMakeDocuments, float64(i+1)/float64(cfg.CorpusSize))
			}
		}
	}
	return db.Put(docs...)
}
