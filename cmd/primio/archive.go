package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/primio/pkg/rid"
	"github.com/Faultbox/primio/pkg/rpkg"
)

func openArchive(path string) *rpkg.Reader {
	archive, err := rpkg.Open(path)
	if err != nil {
		fatalf("%v", err)
	}
	return archive
}

func cmdInfo(args []string) {
	if len(args) > 0 && strings.HasPrefix(args[0], "-") {
		cmdRuntimeInfo(args)
		return
	}
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: primio info <file.rpkg> | primio info -runtime <dir>")
		os.Exit(1)
	}

	archive := openArchive(args[0])
	defer archive.Close()

	ids := archive.List()

	// Count by type
	typeCount := make(map[string]int)
	var totalSize uint64
	for _, id := range ids {
		e, _ := archive.Entry(id)
		typeCount[e.Type]++
		totalSize += uint64(e.Size)
	}

	fmt.Printf("Archive:   %s\n", args[0])
	fmt.Printf("Resources: %d\n", len(ids))
	fmt.Printf("Deletions: %d\n", len(archive.Deletions()))
	fmt.Printf("Size:      %.2f MB\n", float64(totalSize)/(1024*1024))
	fmt.Println()
	fmt.Println("Resources by type:")

	type typeStat struct {
		typ   string
		count int
	}
	var stats []typeStat
	for typ, count := range typeCount {
		stats = append(stats, typeStat{typ, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].typ < stats[j].typ
	})

	for _, s := range stats {
		fmt.Printf("  %-6s %d\n", s.typ, s.count)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	typeFilter := fs.String("type", "", "Only list resources of this type")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: primio list [-type TYPE] <file.rpkg>")
		os.Exit(1)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	want := strings.ToUpper(*typeFilter)
	count := 0
	for _, id := range archive.List() {
		e, _ := archive.Entry(id)
		if want != "" && e.Type != want {
			continue
		}
		fmt.Printf("%s %s %10d %d refs\n", id, e.Type, e.Size, len(e.References))
		count++
	}
	for _, id := range archive.Deletions() {
		fmt.Printf("%s deleted\n", id)
	}

	fmt.Fprintf(os.Stderr, "\n(%d resources)\n", count)
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: primio extract <file.rpkg> <id> [output_dir]")
		os.Exit(1)
	}

	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	id, err := rid.Parse(fs.Arg(1))
	if err != nil {
		fatalf("%v", err)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	entry, ok := archive.Entry(id)
	if !ok {
		fmt.Fprintf(os.Stderr, "Resource not found: %s\n", id)
		os.Exit(1)
	}

	data, err := archive.Read(id)
	if err != nil {
		fatalf("reading resource: %v", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fatalf("creating directory: %v", err)
	}
	outputPath := filepath.Join(outputDir, id.String()+"."+entry.Type)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fatalf("writing file: %v", err)
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
}
