package main

//
// view query client.
//
// go run main_client.go -view wc -key hello
//

import (
	"flag"
	"fmt"
	"log"
	"os"

	"browsercouch/map_reduce/server"
)

func main() {
	sock := flag.String("sock", server.ViewSock(), "unix socket of the view server")
	view := flag.String("view", "wc", "view name")
	key := flag.String("key", "", "key to look up")
	limit := flag.Int("limit", server.DefaultLimit, "rows to print")
	rebuild := flag.Bool("rebuild", true, "recompute the view before querying")
	flag.Parse()

	client, err := server.Dial("unix", *sock)
	if err != nil {
		log.Fatalln("dialing:", err)
	}
	defer client.Close()

	if *rebuild {
		n, err := client.Rebuild(*view)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d rows\n", *view, n)
	}

	response, err := client.Query(*view, *key, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("pos %d of %d\n%s\n", response.Pos, response.Total, response.Rows)
}
