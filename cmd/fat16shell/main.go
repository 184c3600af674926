package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/fat16vol/directory"
	"github.com/dargueta/fat16vol/engine"
	"github.com/dargueta/fat16vol/tree"
)

func main() {
	app := cli.App{
		Usage:     "Inspect and modify a FAT16 volume image",
		ArgsUsage: "IMAGE_FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "partition", Value: 0, Usage: "MBR partition index to mount"},
		},
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List the entries in a directory",
				ArgsUsage: "IMAGE_FILE [PATH]",
				Action:    runList,
			},
			{
				Name:      "tree",
				Usage:     "Recursively list the directory tree from the root",
				ArgsUsage: "IMAGE_FILE",
				Action:    runTree,
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents to stdout",
				ArgsUsage: "IMAGE_FILE PATH",
				Action:    runCat,
			},
			{
				Name:      "put",
				Usage:     "Copy a host file into the volume",
				ArgsUsage: "IMAGE_FILE DEST_PATH SOURCE_FILE",
				Action:    runPut,
			},
			{
				Name:      "rm",
				Usage:     "Delete a file from the volume",
				ArgsUsage: "IMAGE_FILE PATH",
				Action:    runRemove,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

// openFromArgs opens the image named by the command's first positional
// argument and returns it along with the remaining positional arguments.
func openFromArgs(context *cli.Context) (*engine.Engine, []string, error) {
	if context.Args().Len() < 1 {
		return nil, nil, fmt.Errorf("IMAGE_FILE is required")
	}
	imagePath := context.Args().First()

	eng, err := engine.OpenFile(imagePath, context.Int("partition"))
	if err != nil {
		return nil, nil, err
	}
	return eng, context.Args().Tail(), nil
}

// cdTo walks eng to the directory named by a "/"-separated path, relative to
// the current directory. An empty path is a no-op.
func cdTo(eng *engine.Engine, path string) error {
	if path == "" {
		return nil
	}
	for _, component := range strings.Split(path, "/") {
		switch component {
		case "", ".":
			eng.CdSelf()
		case "..":
			eng.CdUp()
		default:
			if err := eng.Cd(component); err != nil {
				return err
			}
		}
	}
	return nil
}

func runList(context *cli.Context) error {
	eng, rest, err := openFromArgs(context)
	if err != nil {
		return err
	}
	defer eng.Close()

	path := ""
	if len(rest) > 0 {
		path = rest[0]
	}
	if err := cdTo(eng, path); err != nil {
		return err
	}

	slots, err := eng.List()
	if err != nil {
		return err
	}
	for _, slot := range slots {
		kind := "-"
		if slot.Entry.IsDirectory() {
			kind = "d"
		}
		fmt.Printf("%s %8d %s\n", kind, slot.Entry.FileSize, directory.Format(slot.Entry))
	}
	return nil
}

func runTree(context *cli.Context) error {
	eng, _, err := openFromArgs(context)
	if err != nil {
		return err
	}
	defer eng.Close()

	nodes, err := eng.Tree()
	if err != nil {
		return err
	}
	printTree(nodes, 0)
	return nil
}

func printTree(nodes []tree.Node, depth int) {
	for _, node := range nodes {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), node.Name)
		if node.IsDir {
			printTree(node.Children, depth+1)
		}
	}
}

func runCat(context *cli.Context) error {
	eng, rest, err := openFromArgs(context)
	if err != nil {
		return err
	}
	defer eng.Close()

	if len(rest) < 1 {
		return fmt.Errorf("PATH is required")
	}
	dir, name := splitPath(rest[0])
	if err := cdTo(eng, dir); err != nil {
		return err
	}

	data, err := eng.Read(name)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runPut(context *cli.Context) error {
	eng, rest, err := openFromArgs(context)
	if err != nil {
		return err
	}
	defer eng.Close()

	if len(rest) < 2 {
		return fmt.Errorf("DEST_PATH and SOURCE_FILE are required")
	}
	dir, name := splitPath(rest[0])
	if err := cdTo(eng, dir); err != nil {
		return err
	}
	return eng.Write(name, rest[1])
}

func runRemove(context *cli.Context) error {
	eng, rest, err := openFromArgs(context)
	if err != nil {
		return err
	}
	defer eng.Close()

	if len(rest) < 1 {
		return fmt.Errorf("PATH is required")
	}
	dir, name := splitPath(rest[0])
	if err := cdTo(eng, dir); err != nil {
		return err
	}
	return eng.Delete(name)
}

// splitPath separates a "/"-separated path into its directory portion and
// final name component.
func splitPath(path string) (dir, name string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}
