// Command tlctest is a golden-fixture test runner: it compiles every test
// case directory with a target compiler binary, hashes the assembly it
// produced, and compares against a recorded golden file, following the
// teacher's own `cmd/gtest/main.go` shape (flag-driven compile-and-compare,
// worker pool over test cases, JSON golden files keyed by content hash,
// colored pass/fail summary) without its binary-execution machinery: this
// pipeline has no link step, so there is nothing to run — only assembly
// text to compare.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

// Compile is one test case's recorded compiler invocation: its exit code,
// diagnostic output, and the content hash of every assembly file it wrote.
type Compile struct {
	ExitCode int               `json:"exitCode"`
	Stderr   string            `json:"stderr"`
	Outputs  map[string]uint64 `json:"outputs"` // output file name -> xxhash
}

type CaseResult struct {
	Dir     string   `json:"dir"`
	Status  string   `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string   `json:"message,omitempty"`
	Diff    string   `json:"diff,omitempty"`
	Golden  *Compile `json:"golden,omitempty"`
	Got     *Compile `json:"got,omitempty"`
}

type SuiteResults map[string]*CaseResult

var (
	targetCompiler = flag.String("target-compiler", "./tlc", "Path to the compiler binary under test.")
	targetArgs     = flag.String("target-args", "", "Extra arguments for the compiler under test (space-separated).")
	generateGolden = flag.String("generate-golden", "", "Generate a golden .json file for one test case directory.")
	caseGlob       = flag.String("cases", "tests/*", "Glob pattern(s) for test case directories (space-separated).")
	outputJSON     = flag.String("output", ".tlctest_results.json", "Output file for the JSON test report.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
)

const (
	cRed   = "\x1b[91m"
	cGreen = "\x1b[92m"
	cBold  = "\x1b[1m"
	cNone  = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	tempDir, err := os.MkdirTemp("", "tlctest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s could not create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)

	if *generateGolden != "" {
		generateGoldenFor(*generateGolden, tempDir)
		return
	}
	runSuite(tempDir)
}

func goldenPath(dir string) string {
	return filepath.Join(dir, "golden.json")
}

// sourceFiles lists a case directory's .t/.th files, in lexical order: the
// driver's per-file pipeline has no notion of link order, but a stable
// invocation order keeps golden outputs reproducible across runs.
func sourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".t") || strings.HasSuffix(e.Name(), ".th") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func asmFileName(path string) string {
	if len(path) < 2 {
		return path + "s"
	}
	return path[:len(path)-2] + "s"
}

func compileCase(dir, workDir string) (*Compile, error) {
	files, err := sourceFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .t/.th files in %s", dir)
	}

	var codeFiles []string
	for _, f := range files {
		cp := filepath.Join(workDir, filepath.Base(f))
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(cp, data, 0o644); err != nil {
			return nil, err
		}
		if strings.HasSuffix(f, ".t") {
			codeFiles = append(codeFiles, cp)
		}
	}

	args := strings.Fields(*targetArgs)
	for _, f := range files {
		args = append(args, filepath.Join(workDir, filepath.Base(f)))
	}

	var stderr bytes.Buffer
	cmd := exec.Command(*targetCompiler, args...)
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("running compiler: %w", runErr)
		}
	}

	outputs := make(map[string]uint64)
	for _, cf := range codeFiles {
		asm := asmFileName(cf)
		data, err := os.ReadFile(asm)
		if err != nil {
			continue // a failed/partial compile may not write every output
		}
		outputs[filepath.Base(asm)] = xxhash.Sum64(data)
	}

	return &Compile{ExitCode: exitCode, Stderr: stderr.String(), Outputs: outputs}, nil
}

func generateGoldenFor(dir, workDir string) {
	caseWork := filepath.Join(workDir, filepath.Base(dir))
	if err := os.MkdirAll(caseWork, 0o755); err != nil {
		log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
	}
	got, err := compileCase(dir, caseWork)
	if err != nil {
		log.Fatalf("%s[ERROR]%s could not generate golden for %s: %v\n", cRed, cNone, dir, err)
	}
	data, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		log.Fatalf("%s[ERROR]%s marshalling golden data: %v\n", cRed, cNone, err)
	}
	if err := os.WriteFile(goldenPath(dir), data, 0o644); err != nil {
		log.Fatalf("%s[ERROR]%s writing golden file: %v\n", cRed, cNone, err)
	}
	log.Printf("%s[SUCCESS]%s golden file written to %s\n", cGreen, cNone, goldenPath(dir))
}

func runSuite(workDir string) {
	dirs, err := expandGlobPatterns(*caseGlob)
	if err != nil {
		log.Fatalf("%s[ERROR]%s invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(dirs) == 0 {
		log.Println("No test case directories found matching the pattern(s).")
		return
	}

	tasks := make(chan string, len(dirs))
	resultsChan := make(chan *CaseResult, len(dirs))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for dir := range tasks {
				caseWork := filepath.Join(workDir, fmt.Sprintf("w%d-%s", worker, filepath.Base(dir)))
				resultsChan <- testCase(dir, caseWork)
			}
		}(i)
	}
	for _, dir := range dirs {
		tasks <- dir
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	var results []*CaseResult
	for r := range resultsChan {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Dir < results[j].Dir })

	printSummary(results)
	resultsMap := writeJSONReport(results)
	if hasFailures(resultsMap) {
		os.Exit(1)
	}
}

func testCase(dir, workDir string) *CaseResult {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return &CaseResult{Dir: dir, Status: "ERROR", Message: fmt.Sprintf("could not create work dir: %v", err)}
	}
	golden, err := loadGolden(dir)
	if err != nil {
		return &CaseResult{Dir: dir, Status: "SKIP", Message: "no golden.json for this case"}
	}
	got, err := compileCase(dir, workDir)
	if err != nil {
		return &CaseResult{Dir: dir, Status: "ERROR", Message: err.Error()}
	}
	return compareCompiles(dir, golden, got)
}

func loadGolden(dir string) (*Compile, error) {
	data, err := os.ReadFile(goldenPath(dir))
	if err != nil {
		return nil, err
	}
	var c Compile
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func compareCompiles(dir string, golden, got *Compile) *CaseResult {
	var diffs strings.Builder
	failed := false

	if golden.ExitCode != got.ExitCode {
		failed = true
		fmt.Fprintf(&diffs, "exit code: golden=%d got=%d\n", golden.ExitCode, got.ExitCode)
	}
	if golden.ExitCode != 0 && golden.Stderr != got.Stderr {
		failed = true
		fmt.Fprintf(&diffs, "stderr mismatch:\n%s\n", cmp.Diff(golden.Stderr, got.Stderr))
	}

	var names []string
	seen := make(map[string]bool)
	for name := range golden.Outputs {
		names = append(names, name)
		seen[name] = true
	}
	for name := range got.Outputs {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		gh, gok := golden.Outputs[name]
		th, tok := got.Outputs[name]
		switch {
		case gok && !tok:
			failed = true
			fmt.Fprintf(&diffs, "output %s: golden produced it, target did not\n", name)
		case !gok && tok:
			failed = true
			fmt.Fprintf(&diffs, "output %s: target produced it, golden did not\n", name)
		case gh != th:
			failed = true
			fmt.Fprintf(&diffs, "output %s: content hash mismatch (golden=%x got=%x)\n", name, gh, th)
		}
	}

	if failed {
		return &CaseResult{Dir: dir, Status: "FAIL", Message: "compile output mismatch", Diff: diffs.String(), Golden: golden, Got: got}
	}
	return &CaseResult{Dir: dir, Status: "PASS", Message: "matches golden", Golden: golden, Got: got}
}

func printSummary(results []*CaseResult) {
	var passed, failed, skipped, errored int
	for _, r := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s...\n", r.Dir)
		switch r.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, r.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, r.Message)
			if *verbose {
				fmt.Print(r.Diff)
			}
		case "SKIP":
			skipped++
			fmt.Printf("  [SKIP] %s\n", r.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, r.Message)
		}
	}
	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %d Skipped, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, skipped, cRed, errored, cNone, len(results))
}

func writeJSONReport(results []*CaseResult) SuiteResults {
	resultsMap := make(SuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.Dir] = r
	}
	data, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s marshalling results: %v\n", cRed, cNone, err)
		return resultsMap
	}
	if err := os.WriteFile(*outputJSON, data, 0o644); err != nil {
		log.Printf("%s[ERROR]%s writing %s: %v\n", cRed, cNone, *outputJSON, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", *outputJSON)
	}
	return resultsMap
}

func hasFailures(results SuiteResults) bool {
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.IsDir() || seen[abs] {
				continue
			}
			seen[abs] = true
			dirs = append(dirs, abs)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
