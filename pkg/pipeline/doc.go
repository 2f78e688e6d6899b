// Package pipeline provides the streaming primitives shared by the export
// and generation commands.
//
// Every command in this repository follows the same contract: records go to
// stdout as newline-delimited JSON, one object per line, while diagnostics
// go to stderr. This package keeps that contract honest under concurrency:
//
//   - LineReader yields complete input lines, carrying partial trailing
//     data until its newline arrives, and tracks line numbers for error
//     reporting.
//   - Emitter serializes records to a shared sink behind a single mutex,
//     flushing each line immediately so downstream consumers can stream.
//   - Batcher groups records into fixed-size batches and drains the final
//     short batch at end of input.
//   - Tally accumulates run statistics through one serialized update path.
//
// Example usage:
//
//	reader := pipeline.NewLineReader(os.Stdin)
//	emitter := pipeline.NewEmitter(os.Stdout)
//	batcher := pipeline.NewBatcher[Record](20)
package pipeline
