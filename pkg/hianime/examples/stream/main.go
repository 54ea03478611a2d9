// Example: Resolve the streams of the first episode of a show
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/alvarorichard/hianime/pkg/hianime"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: stream <show url>")
	}

	ctx := context.Background()
	client := hianime.NewClient()

	detail, err := client.Load(ctx, os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	if len(detail.Episodes) == 0 {
		log.Fatal("show has no episodes")
	}

	first := detail.Episodes[0]
	fmt.Printf("%s - %s\n\n", detail.Title, first.Name)

	videos, subs, err := client.Links(ctx, first.Data)
	if err != nil {
		log.Printf("some servers failed: %v", err)
	}
	for _, v := range videos {
		fmt.Printf("%s\n   %s\n   Referer: %s\n", v.Name, v.URL, v.Referer)
	}
	for _, s := range subs {
		fmt.Printf("Subtitle %s: %s\n", s.Lang, s.URL)
	}
}
