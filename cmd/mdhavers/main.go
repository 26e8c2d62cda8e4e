// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command mdhavers runs a single .braw script.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/golang/glog"

	mdhavers "github.com/0x4D44/mdhavers-sub002"
)

var (
	logFilterFlag string
	cpuprofile    string
)

func parseFlags() []string {
	flag.StringVar(&logFilterFlag, "log", "", "log_blether filter, overrides MDH_LOG")
	flag.StringVar(&cpuprofile, "mdh_cpuprofile", "", "write cpu profile to `file`")
	flag.Parse()
	return flag.Args()
}

func main() {
	defer glog.Flush()
	args := parseFlags()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: mdhavers <script.braw>")
		os.Exit(2)
	}

	if logFilterFlag != "" {
		os.Setenv("MDH_LOG", logFilterFlag)
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			glog.Fatal(err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	path := args[0]
	interp := mdhavers.New()

	err := interp.RunFile(path)
	fmt.Print(interp.Output())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
