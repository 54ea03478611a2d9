// Example: Basic search using the hianime library
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/alvarorichard/hianime/pkg/hianime"
)

func main() {
	client := hianime.NewClient()

	fmt.Println("Searching for 'Frieren'...")
	results, err := client.Search(context.Background(), "Frieren")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nFound %d results:\n\n", len(results))
	for i, entry := range results {
		fmt.Printf("%d. %s (%s)\n", i+1, entry.Name, entry.Type)
		fmt.Printf("   URL: %s\n", entry.URL)
		if entry.Episodes != nil {
			fmt.Printf("   Episodes: %d\n", *entry.Episodes)
		}
		fmt.Println()
	}
}
