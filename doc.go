// Package originality checks submitted text for plagiarism against a local
// corpus of everything seen before and, failing a local match, against a
// web search engine.
//
// Open builds a Checker from a config.Config:
//
//	cfg := config.NewConfig(config.WithSearchEngine(config.EngineNone))
//	checker, err := originality.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer checker.Close()
//
//	verdict, err := checker.Check(ctx, "The quick brown fox")
//
// Every submission is learned into the corpus, so a repeat is caught
// locally. The local scan is linear in the corpus size and quadratic in
// text length; it suits the corpora of a single-process tool.
package originality
