// Command sometag trains and runs a beam-search averaged structured
// perceptron part-of-speech tagger.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/someweta/sometag"
)

// settings is every flag sometag accepts, mirroring the reference
// implementation's single mutually-exclusive-group parser (someweta/
// cli.py's arguments()) rather than a subcommand tree: exactly one of
// --train, --tag, --evaluate, --crossvalidate selects the mode, and
// the remaining flags are interpreted relative to that mode.
type settings struct {
	train         string
	tag           string
	evaluate      string
	crossvalidate bool

	config    string
	brown     string
	w2v       string
	lexicon   string
	mapping   string
	ignoreTag string
	prior     string

	iterations int
	beamSize   int
	parallel   int
	xml        bool
	raw        bool
	progress   bool
}

func parseFlags(args []string) (*settings, string, error) {
	fs := flag.NewFlagSet("sometag", flag.ContinueOnError)
	s := &settings{}

	fs.StringVar(&s.train, "train", "", "train the tagger on the input corpus and write the model to the given path")
	fs.StringVar(&s.tag, "tag", "", "tag the input corpus using the given model")
	fs.StringVar(&s.evaluate, "evaluate", "", "evaluate the performance of the given model on the input corpus")
	fs.BoolVar(&s.crossvalidate, "crossvalidate", false, "evaluate tagger performance via 10-fold cross-validation on the input corpus")

	fs.StringVar(&s.config, "config", "", "optional YAML defaults file")
	fs.StringVar(&s.brown, "brown", "", "Brown clusters file; only for training or cross-validation")
	fs.StringVar(&s.w2v, "w2v", "", "word2vec vectors file; only for training or cross-validation")
	fs.StringVar(&s.lexicon, "lexicon", "", "additional full-form lexicon; only for training or cross-validation")
	fs.StringVar(&s.mapping, "mapping", "", "additional mapping to a coarser tagset; only for tagging, evaluating, or cross-validation")
	fs.StringVar(&s.ignoreTag, "ignore-tag", "", "ignore this tag (useful for partial annotation)")
	fs.StringVar(&s.prior, "prior", "", "prior weights, i.e. a model trained on another corpus; only for training (cross-validation does not use it)")

	fs.IntVar(&s.iterations, "iterations", 10, "only for training or cross-validation: number of iterations")
	fs.IntVar(&s.iterations, "i", 10, "shorthand for --iterations")
	fs.IntVar(&s.beamSize, "beam-size", sometag.DefaultBeamWidth, "size of the search beam")
	fs.IntVar(&s.beamSize, "b", sometag.DefaultBeamWidth, "shorthand for --beam-size")
	fs.IntVar(&s.parallel, "parallel", 1, "run N worker goroutines to speed up tagging")
	fs.BoolVar(&s.xml, "xml", false, "the input is an XML passthrough file")
	fs.BoolVar(&s.xml, "x", false, "shorthand for --xml")
	fs.BoolVar(&s.raw, "raw", false, "the input is untokenized raw text, one sentence per non-blank line; only for tagging")
	fs.BoolVar(&s.progress, "progress", false, "show progress when tagging a file")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if err := applyFileDefaults(fs, s); err != nil {
		return nil, "", err
	}

	if s.raw && s.tag == "" {
		return nil, "", fmt.Errorf("--raw is only valid with --tag")
	}
	if s.raw && s.xml {
		return nil, "", fmt.Errorf("--raw and --xml are mutually exclusive")
	}

	modes := 0
	for _, set := range []bool{s.train != "", s.tag != "", s.evaluate != "", s.crossvalidate} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return nil, "", fmt.Errorf("exactly one of --train, --tag, --evaluate, --crossvalidate is required")
	}

	rest := fs.Args()
	if len(rest) != 1 {
		return nil, "", fmt.Errorf("expected exactly one CORPUS argument (a path, or \"-\" for stdin)")
	}
	return s, rest[0], nil
}

// applyFileDefaults overlays a YAML config file's values onto s,
// wherever the corresponding flag wasn't explicitly set on the command
// line. fs.Visit only reports flags actually passed, so this correctly
// lets explicit flags win over file defaults.
func applyFileDefaults(fs *flag.FlagSet, s *settings) error {
	if s.config == "" {
		return nil
	}
	file, err := loadFileConfig(s.config)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["lexicon"] && file.Lexicon != "" {
		s.lexicon = file.Lexicon
	}
	if !set["brown"] && file.BrownClusters != "" {
		s.brown = file.BrownClusters
	}
	if !set["w2v"] && file.Word2Vec != "" {
		s.w2v = file.Word2Vec
	}
	if !set["mapping"] && file.Mapping != "" {
		s.mapping = file.Mapping
	}
	if !set["ignore-tag"] && file.IgnoreTag != "" {
		s.ignoreTag = file.IgnoreTag
	}
	if !set["beam-size"] && !set["b"] && file.BeamSize != 0 {
		s.beamSize = file.BeamSize
	}
	if !set["iterations"] && !set["i"] && file.Iterations != 0 {
		s.iterations = file.Iterations
	}
	return nil
}

func main() {
	s, corpusArg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case s.train != "":
		err = runTrain(s, corpusArg)
	case s.tag != "":
		err = runTag(s, corpusArg)
	case s.evaluate != "":
		err = runEvaluate(s, corpusArg)
	case s.crossvalidate:
		err = runCrossValidate(s, corpusArg)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// openCorpus opens path for reading, treating "-" as stdin (spec §6).
func openCorpus(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	return f, nil
}

// readMapping loads the coarse-tagset mapping if s.mapping is set.
// Only tag, evaluate, and crossvalidate consult it - training never
// does (someweta/cli.py's --mapping gating).
func readMapping(s *settings) (map[string]string, error) {
	if s.mapping == "" {
		return nil, nil
	}
	f, err := os.Open(s.mapping)
	if err != nil {
		return nil, fmt.Errorf("opening mapping: %w", err)
	}
	defer f.Close()
	return sometag.ReadMapping(f)
}

// readTrainResources loads lexicon/Brown clusters/word2vec vectors if
// set. Only training and crossvalidate consult these - tag and
// evaluate get them back out of the saved model instead.
func readTrainResources(s *settings) (sometag.Resources, error) {
	var res sometag.Resources
	if s.lexicon != "" {
		f, err := os.Open(s.lexicon)
		if err != nil {
			return res, fmt.Errorf("opening lexicon: %w", err)
		}
		defer f.Close()
		lex, err := sometag.ReadLexicon(f)
		if err != nil {
			return res, err
		}
		res.Lexicon = lex
	}
	if s.brown != "" {
		f, err := os.Open(s.brown)
		if err != nil {
			return res, fmt.Errorf("opening brown clusters: %w", err)
		}
		defer f.Close()
		brown, err := sometag.ReadBrownClusters(f)
		if err != nil {
			return res, err
		}
		res.Brown = brown
	}
	if s.w2v != "" {
		f, err := os.Open(s.w2v)
		if err != nil {
			return res, fmt.Errorf("opening word2vec vectors: %w", err)
		}
		defer f.Close()
		vecs, err := sometag.ReadWord2VecVectors(f)
		if err != nil {
			return res, err
		}
		res.Vectors = vecs
	}
	return res, nil
}

func runTrain(s *settings, corpusArg string) error {
	res, err := readTrainResources(s)
	if err != nil {
		return err
	}

	in, err := openCorpus(corpusArg)
	if err != nil {
		return err
	}
	defer in.Close()
	var corpus *sometag.Corpus
	if s.xml {
		corpus, _, err = sometag.ReadXMLPassthrough(in)
	} else {
		corpus, err = sometag.ReadCorpus(in)
	}
	if err != nil {
		return err
	}

	tagger := sometag.NewTagger(res, s.ignoreTag)
	tagger.BeamWidth = s.beamSize
	tagger.BeamHistory = sometag.DefaultBeamHistory

	if s.prior != "" {
		priorFile, err := os.Open(s.prior)
		if err != nil {
			return fmt.Errorf("opening prior model: %w", err)
		}
		defer priorFile.Close()
		if err := tagger.LoadPriorModel(priorFile); err != nil {
			return err
		}
	}

	progress := sometag.NewProgress(os.Stderr, s.iterations)
	stats := tagger.Train(corpus, s.iterations)
	for i, stat := range stats {
		log.Printf("iteration %d: %d sentences, %d early updates, %d tokens updated",
			stat.Iteration, stat.Sentences, stat.EarlyUpdates, stat.TokensUpdated)
		if s.progress {
			progress.Update(i + 1)
		}
	}
	if s.progress {
		progress.Done()
	}

	out, err := os.Create(s.train)
	if err != nil {
		return fmt.Errorf("creating model file: %w", err)
	}
	defer out.Close()
	return tagger.Save(out)
}

func loadTaggerForUse(s *settings, modelPath string) (*sometag.Tagger, error) {
	mapping, err := readMapping(s)
	if err != nil {
		return nil, err
	}
	modelFile, err := os.Open(modelPath)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer modelFile.Close()
	return sometag.LoadTagger(modelFile, mapping, s.beamSize, sometag.DefaultBeamHistory, s.ignoreTag)
}

func runTag(s *settings, corpusArg string) error {
	tagger, err := loadTaggerForUse(s, s.tag)
	if err != nil {
		return err
	}

	in, err := openCorpus(corpusArg)
	if err != nil {
		return err
	}
	defer in.Close()

	var progress *sometag.Progress
	if s.progress {
		progress = sometag.NewProgress(os.Stderr, 0)
	}

	if s.xml {
		return tagXML(tagger, in, os.Stdout, progress)
	}
	if s.raw {
		return tagRawStream(tagger, in, os.Stdout, progress)
	}

	corpus, err := sometag.ReadUntagged(in)
	if err != nil {
		return err
	}
	return tagParallel(tagger, corpus, os.Stdout, s.parallel, progress)
}

// tagRawStream tags untokenized raw text, one sentence per non-blank
// line (spec's raw-text tagging mode, built from the teacher's own
// word tokenizer since the reference implementation only ever tags
// pre-tokenized input).
func tagRawStream(tagger *sometag.Tagger, r io.Reader, w io.Writer, progress *sometag.Progress) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	tok := sometag.NewTokenizer()
	done := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens, labels := tagger.TagRaw(line, tok)
		for i, t := range tokens {
			fmt.Fprintf(w, "%s\t%s\n", t, labels[i])
		}
		fmt.Fprintln(w)
		done += len(tokens)
		if progress != nil {
			progress.Update(done)
		}
	}
	if progress != nil {
		progress.Done()
	}
	return scanner.Err()
}

func tagXML(tagger *sometag.Tagger, r io.Reader, w io.Writer, progress *sometag.Progress) error {
	corpus, markup, err := sometag.ReadXMLPassthrough(r)
	if err != nil {
		return err
	}
	tagger.Extractor.SetTokens(corpus.Tokens)
	done := 0
	for i := 0; i < corpus.NumSentences(); i++ {
		tokens, _ := corpus.Sentence(i)
		start := corpus.Offsets[i]
		labels := sometag.Decode(tagger.Store, tagger.Registry, tagger.Extractor, tokens, start, tagger.BeamWidth, tagger.BeamHistory)
		for j, tok := range tokens {
			for _, line := range markup[start+j] {
				fmt.Fprintln(w, line)
			}
			fmt.Fprintf(w, "%s\t%s\n", tok, labels[j])
		}
		done += len(tokens)
		if progress != nil {
			progress.Update(done)
		}
	}
	for _, line := range markup[len(corpus.Tokens)] {
		fmt.Fprintln(w, line)
	}
	if progress != nil {
		progress.Done()
	}
	return nil
}

// tagParallel fans sentences out across a worker pool, each worker
// holding its own Extractor (Store/Registry are read-only at tagging
// time, so concurrent Decode calls are safe; only the Extractor's
// per-instance caches are exclusive to the goroutine that owns them).
func tagParallel(tagger *sometag.Tagger, corpus *sometag.Corpus, w io.Writer, workers int, progress *sometag.Progress) error {
	if workers < 1 {
		workers = 1
	}
	n := corpus.NumSentences()
	results := make([][]string, n)

	jobs := make(chan int, n)
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			ext := sometag.NewExtractor(tagger.Resources)
			for idx := range jobs {
				tokens, _ := corpus.Sentence(idx)
				start := corpus.Offsets[idx]
				ext.SetTokens(corpus.Tokens)
				results[idx] = sometag.Decode(tagger.Store, tagger.Registry, ext, tokens, start, tagger.BeamWidth, tagger.BeamHistory)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	for i := 0; i < workers; i++ {
		<-done
	}

	tokensDone := 0
	for i := 0; i < n; i++ {
		tokens, _ := corpus.Sentence(i)
		for j, tok := range tokens {
			fmt.Fprintf(w, "%s\t%s\n", tok, results[i][j])
		}
		fmt.Fprintln(w)
		tokensDone += len(tokens)
		if progress != nil {
			progress.Update(tokensDone)
		}
	}
	if progress != nil {
		progress.Done()
	}
	return nil
}

func runEvaluate(s *settings, corpusArg string) error {
	tagger, err := loadTaggerForUse(s, s.evaluate)
	if err != nil {
		return err
	}

	in, err := openCorpus(corpusArg)
	if err != nil {
		return err
	}
	defer in.Close()
	var evalCorpus *sometag.Corpus
	if s.xml {
		evalCorpus, _, err = sometag.ReadXMLPassthrough(in)
	} else {
		evalCorpus, err = sometag.ReadCorpus(in)
	}
	if err != nil {
		return err
	}

	result := tagger.Evaluate(evalCorpus)
	fmt.Printf("Accuracy: %.2f%%; IV: %.2f%%; OOV: %.2f%%\n",
		result.Accuracy()*100, result.IVAccuracy()*100, result.OOVAccuracy()*100)
	return nil
}

func runCrossValidate(s *settings, corpusArg string) error {
	mapping, err := readMapping(s)
	if err != nil {
		return err
	}
	res, err := readTrainResources(s)
	if err != nil {
		return err
	}
	res.Mapping = mapping

	in, err := openCorpus(corpusArg)
	if err != nil {
		return err
	}
	defer in.Close()
	var corpus *sometag.Corpus
	if s.xml {
		corpus, _, err = sometag.ReadXMLPassthrough(in)
	} else {
		corpus, err = sometag.ReadCorpus(in)
	}
	if err != nil {
		return err
	}

	const folds = 10
	results, mean, ci := sometag.CrossValidate(corpus, folds, s.iterations, res, s.ignoreTag)
	for _, r := range results {
		log.Printf("Accuracy: %.2f%%", r.Accuracy*100)
	}
	fmt.Printf("mean accuracy: %.2f%% +/- %.2f%% (95%% CI)\n", mean*100, ci*100)
	return nil
}
