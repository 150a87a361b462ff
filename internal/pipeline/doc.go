// Package pipeline folds partial source documents into one combined
// document, driven by a config.PipelineConfig.
//
// The first source is the sink. Steps run in configuration order:
//
//   - join and merge fold every further source into the sink, with
//     transform.JoinData (or JoinArrayData without a category) and
//     transform.DeepMerge;
//   - promote, remove, defaults and prune work on the sink, or on one of
//     its top-level members when a category is set.
//
// A step with a CEL "when" condition runs only when the condition holds
// for the current document:
//
//	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	doc, err := p.Run(ctx, public, private)
//	if err != nil {
//	    return err
//	}
//	out := tree.ToAny(doc)
//
// Every run gets a UUID run ID, carried in its logs and in the
// "pipeline.run" span. Runner swaps pipelines on configuration reload and
// plugs into config.Watcher.
package pipeline
