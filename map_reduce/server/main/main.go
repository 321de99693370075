package main

//
// view server.
//
// go run main.go -dir /tmp/couch -corpus 1000
//

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"time"

	"browsercouch/map_reduce/mr"
	"browsercouch/map_reduce/mrapps"
	"browsercouch/map_reduce/server"
	"browsercouch/store"
)

func main() {
	sock := flag.String("sock", server.ViewSock(), "unix socket to listen on")
	dir := flag.String("dir", ".", "directory holding the database files")
	name := flag.String("db", "big", "database name")
	chunk := flag.Int("chunk", mr.DefaultChunkSize, "documents or keys per chunk")
	workers := flag.Int("workers", 1, "map workers")
	corpus := flag.Int("corpus", 0, "seed an empty database with this many random documents")
	flag.Parse()

	logger := log.New(os.Stderr, "viewd ", log.LstdFlags|log.Lshortfile)

	db, err := store.Open(*name, &store.FileStorage{Dir: *dir}, logger)
	if err != nil {
		logger.Fatalln(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *corpus > 0 && db.Len() == 0 {
		cfg := mrapps.DefaultCorpusConfig()
		cfg.CorpusSize = *corpus
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		err := mrapps.MakeCorpus(ctx, db, cfg, rnd, func(phase mr.Phase, fraction float64) {
			logger.Printf("building new corpus (%d%%)", int(fraction*100))
		})
		if err != nil {
			logger.Fatalln(err)
		}
	}

	cfg := mrapps.Config{
		ChunkSize: *chunk,
		Workers:   *workers,
		Progress: mr.Throttle(100*time.Millisecond, 10*time.Millisecond, func(phase mr.Phase, fraction float64) {
			logger.Printf("%s (%d%%)", phase, int(fraction*100))
		}),
	}
	vs := server.NewViewServer(db, mrapps.Registry(), cfg, logger)

	os.Remove(*sock)
	listen, err := net.Listen("unix", *sock)
	if err != nil {
		logger.Fatalln(err)
	}
	logger.Printf("serving %d documents on %s", db.Len(), *sock)
	if err := server.Serve(ctx, listen, vs); err != nil {
		logger.Fatalln(err)
	}
}
