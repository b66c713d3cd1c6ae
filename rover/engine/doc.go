// Package engine provides the core simulation logic for the Mars rover.
//
// The engine package implements the full simulation pipeline:
//   - Grid parsing (a two digit width/height line such as "88")
//   - Start position parsing ("12 E"), validated against the grid
//   - Instruction compilation: consecutive moves between rotations are
//     collapsed into run-length Segments
//   - Position integration: each axis walks the segments and checks the grid
//     bounds after every segment
//
// Core Types:
//
// Heading is a clockwise compass enum (N, E, S, W). Grid, Position and
// RoverState describe the world and the rover. Segment is one run of forward
// moves under a single heading.
//
// Usage:
//
//	result, err := engine.Simulate("88", "12 E", "MMLMRMMRRMML")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Final) // 3 3 S
//
// Stream usage, as used by the rover command:
//
//	err := engine.Run(os.Stdin, os.Stdout, os.Stderr)
//
// Simulation Rules:
//
// Coordinates are 1-based. North increases y, East increases x. Bounds are
// checked once per segment, so a run that leaves the grid fails even if a later
// segment would bring the rover back. Every failure is terminal; nothing is
// clamped or wrapped.
package engine
