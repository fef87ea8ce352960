package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/primio/internal/logger"
	"github.com/Faultbox/primio/internal/reimport"
	"github.com/Faultbox/primio/internal/repo"
	"github.com/Faultbox/primio/pkg/rid"
	"github.com/Faultbox/primio/pkg/rpkg"
)

func cmdRefs(args []string) {
	fs := flag.NewFlagSet("refs", flag.ExitOnError)
	depth := fs.Int("depth", 8, "Maximum tree depth")
	_, graph := loadEnvironment(fs, args)
	defer graph.Close()

	if fs.NArg() < 1 {
		fatalf("usage: primio refs [options] <id>")
	}
	id, err := rid.Parse(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	typ, err := graph.ResourceType(id)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("%s %s\n", id, typ)
	printRefs(os.Stdout, graph, id, 1, *depth, map[rid.ID]bool{id: true})
}

// printRefs prints the dependency subtree of id. Resources already on the
// current path are printed but not expanded.
func printRefs(w io.Writer, graph *repo.Graph, id rid.ID, level, maxDepth int, path map[rid.ID]bool) {
	if level > maxDepth {
		return
	}
	refs, err := graph.References(id, rpkg.DependencyTypes...)
	if err != nil {
		fmt.Fprintf(w, "%s(%v)\n", strings.Repeat("  ", level), err)
		return
	}
	for _, ref := range refs {
		marker := ""
		if !graph.Contains(ref.ID) {
			marker = " (missing)"
		} else if path[ref.ID] {
			marker = " (cycle)"
		}
		fmt.Fprintf(w, "%s%s %s%s\n", strings.Repeat("  ", level), ref.ID, ref.Type, marker)
		if marker != "" {
			continue
		}
		path[ref.ID] = true
		printRefs(w, graph, ref.ID, level+1, maxDepth, path)
		delete(path, ref.ID)
	}
}

func cmdIDs(args []string) {
	fs := flag.NewFlagSet("ids", flag.ExitOnError)
	_, graph := loadEnvironment(fs, args)
	defer graph.Close()

	if fs.NArg() < 1 {
		fatalf("usage: primio ids [options] <TYPE>")
	}
	typ := strings.ToUpper(fs.Arg(0))
	ids := graph.IDsByType(typ)
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Fprintf(os.Stderr, "\n(%d %s resources)\n", len(ids), typ)
}

func cmdNextName(args []string) {
	fs := flag.NewFlagSet("nextname", flag.ExitOnError)
	dir := fs.String("dir", "", "Directory to check (default: the archive's directory)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fatalf("usage: primio nextname [-dir dir] <archive>")
	}
	source := fs.Arg(0)
	target := *dir
	if target == "" {
		target = filepath.Dir(source)
	}

	name, err := rpkg.NextPatchName(target, source)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Println(name)
}

func cmdDeletions(args []string) {
	if len(args) < 1 {
		fatalf("usage: primio deletions <text|->")
	}

	text := strings.Join(args, " ")
	if text == "-" {
		var sb strings.Builder
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			sb.WriteString(sc.Text())
			sb.WriteByte('\n')
		}
		if err := sc.Err(); err != nil {
			fatalf("reading stdin: %v", err)
		}
		text = sb.String()
	}

	ids := reimport.CompileDeletionList(text)
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Fprintf(os.Stderr, "\n(%d ids)\n", len(ids))
}

// cmdRuntimeInfo summarizes the resource graph of a runtime directory.
func cmdRuntimeInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cfg, graph := loadEnvironment(fs, args)
	defer graph.Close()
	defer logger.Sync()

	archives := graph.Archives()
	fmt.Printf("Runtime:   %s\n", cfg.Runtime.Dir)
	fmt.Printf("Resources: %d\n", graph.Len())
	fmt.Printf("Archives:  %d\n", len(archives))
	fmt.Println()
	fmt.Println("Load order:")
	for i, name := range archives {
		fmt.Printf("  %3d  %s\n", i, name)
	}
}
