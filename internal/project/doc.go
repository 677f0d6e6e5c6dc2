// Package project searches a set of project folders for files whose names
// or contents match wildcard patterns.
//
// # Architecture
//
// The package is organized around these components:
//
//   - Finder: binds the search engine to a project source and preferences
//   - search.Coordinator: runs one search at a time in the background
//   - search.Queue: carries results from the worker to the consumer
//   - workspace: folders and YAML project groups that supply projects
//   - vfs: file system abstraction used by the walker and scanner
//
// # Quick Start
//
//	ws, err := workspace.NewFromPaths("/src/app", "/src/lib")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f := project.New(ws, project.WithPreferences(store))
//	res, err := f.Find(ctx, search.Criteria{
//	    ContentPattern: "TODO*fix",
//	    FilePattern:    "*.go",
//	})
//
// # Incremental Results
//
// A user interface calls Start and drains Queue as results arrive. Each
// project with at least one matching file yields one ProjectMatch event;
// the search ends with exactly one Completed event. Stop cancels between
// files, and events from a superseded search are never delivered.
//
//	id, err := f.Start(criteria)
//	for {
//	    select {
//	    case <-f.Queue().C():
//	        f.Queue().Drain(sink)
//	    case <-ctx.Done():
//	        f.Stop()
//	    }
//	}
//
// # Patterns
//
// Patterns use '*' and '?' wildcards; every other character, backslash
// included, matches itself. A content pattern matches anywhere in a line. A file pattern without
// wildcards matches anywhere in the name; with wildcards it must match the
// whole name.
package project
