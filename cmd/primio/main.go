// primio re-imports edited glTF meshes into RPKG patch archives and
// inspects the archives of a game runtime directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import":
		cmdImport(args)
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "refs":
		cmdRefs(args)
	case "ids":
		cmdIDs(args)
	case "nextname":
		cmdNextName(args)
	case "deletions":
		cmdDeletions(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`primio - mesh reimport tool for RPKG resource packages

Usage:
  primio <command> [options]

Commands:
  import [options] <scene.gltf>       Rebuild a mesh resource into a patch archive
  info <file.rpkg>                    Show archive information
  info -runtime <dir>                 Show the runtime directory's archives in load order
  list <file.rpkg>                    List records with types and sizes
  extract <file.rpkg> <id> [output]   Extract a resource to a directory
  refs [options] <id>                 Print a resource's dependency tree
  ids [options] <TYPE>                List resource ids of a type
  nextname [-dir dir] <archive>       Print the next free patch name
  deletions <text|->                  Print the ids a deletion list selects

Resource graph commands (import, info -runtime, refs, ids) read the archives of the
runtime directory given by -runtime or the config file.

Examples:
  primio import -runtime ~/Hitman/Runtime 00d4a4a176a10980.gltf
  primio import -auto-orient -delete "0011223344556677" 00d4a4a176a10980.gltf
  primio refs -runtime ~/Hitman/Runtime 00d4a4a176a10980
  primio nextname ~/Hitman/Runtime/chunk3.rpkg`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
