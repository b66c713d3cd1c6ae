// Package mission manages named, reusable rover simulation inputs.
//
// A mission is a grid size, a start position and an instruction string, stored
// as a JSON or YAML file in a missions directory:
//
//	name: figure-eight
//	description: Loops back to the start
//	grid: "88"
//	start: "44 N"
//	instructions: MMRMMRMMRMMLMMLMMLMML
//
// The Catalog loads missions on demand, caches them, and can watch the
// directory so edited or deleted files are reloaded on next access.
//
// Usage:
//
//	catalog, err := mission.NewCatalog("missions", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	m, err := catalog.Load("figure-eight")
package mission
