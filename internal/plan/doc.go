// Package plan reads plan files and seeds task stores from them.
//
// A plan file is JSON (or YAML with a .yaml/.yml extension):
//
//	{
//	  "schema_version": 1,
//	  "project": {"name": "Website relaunch"},
//	  "range": {"start": "2024-01-01", "end": "2024-02-01"},
//	  "tasks": [
//	    {
//	      "key": "design",
//	      "name": "Design",
//	      "start": "2024-01-01",
//	      "end": "2024-01-10",
//	      "progress": 40,
//	      "description": "Optional details",
//	      "depends_on": []
//	    },
//	    {
//	      "key": "build",
//	      "name": "Build",
//	      "start": "2024-01-08",
//	      "end": "2024-01-25",
//	      "depends_on": ["design"]
//	    }
//	  ]
//	}
//
// Keys only exist in the file. Apply creates the tasks in a store, which
// assigns its own ids, and rewrites depends_on keys to those ids.
//
// # Validation
//
// Validate checks the document against an embedded JSON Schema (draft
// 2020-12), or a schema file given in ValidationOptions. Unique keys and
// date ordering are checked separately. Unknown depends_on keys produce
// warnings, not errors, because stores accept dangling dependency ids.
//
// ValidateFiles checks several files at once on a bounded worker pool.
package plan
