package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"pocketnote/pkg/config"
	"pocketnote/pkg/models"
	"pocketnote/pkg/services"
	"pocketnote/pkg/storage"
)

// loremIpsum returns a markdown string with lorem ipsum content
func loremIpsum() string {
	return `# Lorem Ipsum

Lorem ipsum dolor sit amet, **consectetur** adipiscing elit.

- Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.
- Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris.

> Duis aute irure dolor in reprehenderit in voluptate velit esse cillum.
`
}

var titles = []string{
	"Groceries", "Meeting notes", "Trip ideas", "Reading list",
	"Weekend plans", "Project scratchpad", "Gift ideas", "Recipes",
}

var categories = []models.Category{
	models.CategoryPersonal,
	models.CategoryWork,
	models.CategoryFamily,
	models.NewCategory("travel"),
}

func main() {
	count := 10
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			fmt.Fprintf(os.Stderr, "usage: lorem [count]\n")
			os.Exit(1)
		}
		count = n
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	kv, err := storage.Open(cfg.Backend, cfg.DataDir, cfg.MaxRecordSizeBytes())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	gateway := storage.NewGateway(kv, "")
	notes := services.NewNoteService(gateway)
	notes.Initialize()

	for i := 0; i < count; i++ {
		note := notes.AddNote(models.NoteDraft{
			Title:    titles[rand.Intn(len(titles))],
			Content:  loremIpsum(),
			Category: categories[rand.Intn(len(categories))],
			IsPinned: rand.Intn(5) == 0,
		})
		fmt.Printf("Created note: %s\n", note.ID)
	}

	notes.Flush()
	fmt.Printf("Seeded %d notes into %s\n", count, cfg.DataDir)
}
