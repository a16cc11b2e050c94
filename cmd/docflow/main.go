/*
 * Copyright 2025 The DocFlow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// docflow is the thin scheduler admin CLI:
//
//	docflow -store diskv -path ./data start <schedulerId>
//	docflow -store sql -driver mysql -dsn "..." stop <schedulerId>
//	docflow status <schedulerId>
//
// Exit code 0 on success, non-zero on error with the error code string on
// stderr.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/scheduler"
	"github.com/rulego/docflow/store"
)

func main() {
	storeKind := flag.String("store", "diskv", "document store: memory|diskv|sql")
	path := flag.String("path", "./data", "base path of the diskv store")
	driver := flag.String("driver", "mysql", "sql driver: mysql|postgres")
	dsn := flag.String("dsn", "", "sql data source name")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: docflow [flags] start|stop|status <schedulerId>")
		os.Exit(2)
	}
	command, schedulerID := flag.Arg(0), flag.Arg(1)

	documentStore, err := openStore(*storeKind, *path, *driver, *dsn)
	if err != nil {
		fail(err)
	}
	service := scheduler.NewService(documentStore, types.NewConfig())
	defer service.Shutdown()

	config, err := documentStore.Load(schedulerID)
	if err != nil {
		fail(err)
	}
	if config == nil {
		fail(types.NewSchedulerError(types.CodeProcessingError, "scheduler configuration not found: "+schedulerID))
	}

	switch command {
	case "start":
		if config, err = service.Start(config); err == nil {
			_, err = documentStore.Save(config)
		}
	case "stop":
		if config, err = service.Stop(config); err == nil {
			_, err = documentStore.Save(config)
		}
	case "status":
		printStatus(config)
	default:
		fmt.Fprintln(os.Stderr, "unknown command: "+command)
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func openStore(kind, path, driver, dsn string) (types.DocumentStore, error) {
	switch kind {
	case "memory":
		return store.NewMemory(), nil
	case "diskv":
		return store.NewDiskv(path), nil
	case "sql":
		return store.NewSql(store.SqlConfiguration{DriverName: driver, Dsn: dsn})
	default:
		return nil, fmt.Errorf("unknown store kind: %s", kind)
	}
}

func printStatus(config *document.ItemCollection) {
	fmt.Printf("name:    %s\n", config.GetItemValueString("name"))
	fmt.Printf("enabled: %v\n", config.GetItemValueBoolean(scheduler.ItemEnabled))
	if next, ok := config.GetItemValueDate(scheduler.ItemNextTimeout); ok {
		fmt.Printf("next:    %s\n", next)
	}
	for _, line := range config.GetItemValueList(scheduler.ItemLog) {
		fmt.Printf("log:     %s\n", line)
	}
}

// fail prints the error code string on stderr and exits non-zero.
func fail(err error) {
	var code string
	switch e := err.(type) {
	case *types.SchedulerError:
		code = e.Code
	case *types.WorkflowError:
		code = e.Code
	default:
		code = types.CodeProcessingError
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
	os.Exit(1)
}
