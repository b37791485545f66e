package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/fumola-dev/fumola/interp"
	"github.com/fumola-dev/fumola/vm"
)

var (
	file   = flag.String("file", "", "Source file")
	call   = flag.String("call", "", "Entrypoint to run")
	pretty = flag.Bool("pretty", false, "Print each round as a report instead of the term syntax")
	limit  = flag.Int("rounds", 0, "Stop after this many rounds")
)

func main() {
	flag.Parse()
	if *file == "" {
		log.Fatal("--file is required")
	}
	prog, err := vm.CompilePathEntry(*file, *call)
	if err != nil {
		log.Fatalf("couldn't compile: %s", err)
	}
	trace(prog)
}

func trace(prog *vm.Program) {
	sys, err := interp.NewSystem(vm.NewFreshNames(), prog.Main)
	if err != nil {
		log.Fatalln("Got err:", err)
	}
	for round := 0; ; round++ {
		fmt.Printf("******* round %d\n", round)
		if *pretty {
			fmt.Print(sys.PrettyPrint())
		} else {
			fmt.Print(sys)
		}
		if *limit > 0 && round >= *limit {
			fmt.Println("Round limit reached")
			break
		}
		r := sys.Step()
		if r != interp.Progress {
			fmt.Printf("Finished: %s\n", r)
			break
		}
		fmt.Println("Continuing")
	}
}
