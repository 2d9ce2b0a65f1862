// Wren CLI, the entry point for running Wren programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/pwoolcoc/wren/compiler"
	"github.com/pwoolcoc/wren/compiler/hash"
	"github.com/pwoolcoc/wren/manifest"
	"github.com/pwoolcoc/wren/server"
	"github.com/pwoolcoc/wren/store"
	"github.com/pwoolcoc/wren/vm"
)

const (
	historyFile = ".wren_history"
	promptMain  = "> "
	promptCont  = "| "
)

func main() {
	eval := flag.String("e", "", "Evaluate source and exit")
	interactive := flag.Bool("i", false, "Start the REPL after running the script")
	verbosity := flag.Int("verbosity", 0, "Log verbosity (0 quiet, 2 debug)")
	serveMode := flag.Bool("serve", false, "Start the eval server")
	servePort := flag.Int("port", 4567, "Eval server port (used with --serve)")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")
	imageName := flag.String("image", "", "Load this image from the library before running")
	saveName := flag.String("save", "", "Save an image to the library after running")
	libraryPath := flag.String("library", "", "Image library path (default ~/.wren/images.db)")
	snapshot := flag.Bool("snapshot", false, "Write an image file after the run")
	dump := flag.Bool("dump", false, "Print compiled bytecode before running")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wren [options] [script]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a script, a project (when a wren.toml is in reach), or an interactive session.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  wren                        # REPL, or the project entry when wren.toml exists\n")
		fmt.Fprintf(os.Stderr, "  wren script.wren            # Run a script\n")
		fmt.Fprintf(os.Stderr, "  wren -e \"1 + 2\"             # Evaluate an expression\n")
		fmt.Fprintf(os.Stderr, "  wren dev.image              # Open a saved image file in the REPL\n")
		fmt.Fprintf(os.Stderr, "  wren --save dev script.wren # Run, then save the session as 'dev'\n")
		fmt.Fprintf(os.Stderr, "  wren --image dev            # Start from the 'dev' image in the library\n")
		fmt.Fprintf(os.Stderr, "  wren --serve --port 8080    # Serve the eval API\n")
		fmt.Fprintf(os.Stderr, "  wren --lsp                  # Language server on stdio\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	v, err := vm.NewVM(compiler.Compile)
	if err != nil {
		fatal(err)
	}

	if *imageName != "" {
		if err := loadFromLibrary(v, *libraryPath, *imageName); err != nil {
			fatal(err)
		}
	}

	if *lspMode {
		lsp := server.NewLSP(v)
		if err := lsp.Run(); err != nil {
			fatal(err)
		}
		return
	}

	script := flag.Arg(0)
	ranSomething := false
	fingerprint := ""

	switch {
	case *eval != "":
		if *dump {
			dumpBytecode(v, "eval", *eval)
		}
		value, err := v.Interpret("eval", *eval)
		if err != nil {
			fatal(err)
		}
		fmt.Println(value.Debug())
		ranSomething = true
		fingerprint = sourceFingerprint(*eval)

	case script != "":
		if strings.HasSuffix(script, ".image") {
			// Opening an image file drops into the REPL with that state.
			if err := loadImageFile(v, script); err != nil {
				fatal(err)
			}
		} else {
			if *dump {
				if source, err := os.ReadFile(script); err == nil {
					dumpBytecode(v, filepath.Base(script), string(source))
				}
			}
			if err := runScript(v, script); err != nil {
				fatal(err)
			}
			ranSomething = true
			fingerprint = fileFingerprint(script)
			if *snapshot {
				path := strings.TrimSuffix(script, filepath.Ext(script)) + ".image"
				if err := writeImageFile(v, path); err != nil {
					fatal(err)
				}
			}
		}

	default:
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			fatal(err)
		}
		if m != nil {
			if err := runProject(v, m); err != nil {
				fatal(err)
			}
			ranSomething = true
			fingerprint = fileFingerprint(m.EntryPath())
			if *snapshot {
				if err := writeImageFile(v, m.ImageOutputPath()); err != nil {
					fatal(err)
				}
			}
		}
	}

	if *saveName != "" {
		if err := saveToLibrary(v, *libraryPath, *saveName, fingerprint); err != nil {
			fatal(err)
		}
	}

	if *serveMode {
		addr := fmt.Sprintf(":%d", *servePort)
		srv := server.New(v)
		defer srv.Stop()
		if err := srv.ListenAndServe(addr); err != nil {
			fatal(err)
		}
		return
	}

	if *interactive || !ranSomething {
		runREPL(v, *libraryPath)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// runScript interprets a single script file.
func runScript(v *vm.VM, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	_, err = v.Interpret(filepath.Base(path), string(source))
	return err
}

// runProject loads every script under the manifest's source directories
// in name order, then runs the entry script.
func runProject(v *vm.VM, m *manifest.Manifest) error {
	entry := m.EntryPath()
	for _, dir := range m.SourceDirPaths() {
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading %s: %w", dir, err)
		}
		var files []string
		for _, e := range dirEntries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".wren") {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(files)
		for _, file := range files {
			if file == entry {
				continue
			}
			if err := runScript(v, file); err != nil {
				return err
			}
		}
	}
	return runScript(v, entry)
}

// --- Image files and the image library ---

func loadImageFile(v *vm.VM, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	img, err := vm.UnmarshalImage(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return v.RestoreImage(img)
}

func writeImageFile(v *vm.VM, path string) error {
	img, err := v.CaptureImage()
	if err != nil {
		return err
	}
	data, err := img.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// openLibrary opens the image library, defaulting to ~/.wren/images.db.
func openLibrary(path string) (*store.Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot find home directory: %w", err)
		}
		path = filepath.Join(home, ".wren", "images.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}
	return store.Open(path)
}

func saveToLibrary(v *vm.VM, libraryPath, name, fingerprint string) error {
	img, err := v.CaptureImage()
	if err != nil {
		return err
	}
	data, err := img.Marshal()
	if err != nil {
		return err
	}
	lib, err := openLibrary(libraryPath)
	if err != nil {
		return err
	}
	defer lib.Close()
	return lib.Save(name, data, fingerprint)
}

// dumpBytecode prints the compiled form of source. Compile errors are
// left for the run itself to report.
func dumpBytecode(v *vm.VM, name, source string) {
	fn, err := compiler.Compile(v, name, source)
	if err != nil {
		return
	}
	fmt.Print(vm.Disassemble(fn))
}

// sourceFingerprint computes the content fingerprint of source so a
// saved image can be traced back to what produced it. Unparsable input
// just leaves the fingerprint empty.
func sourceFingerprint(source string) string {
	fp, err := hash.HashSource(source)
	if err != nil {
		return ""
	}
	return fp.String()
}

func fileFingerprint(path string) string {
	source, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return sourceFingerprint(string(source))
}

func loadFromLibrary(v *vm.VM, libraryPath, name string) error {
	lib, err := openLibrary(libraryPath)
	if err != nil {
		return err
	}
	defer lib.Close()
	data, err := lib.Load(name)
	if err != nil {
		return err
	}
	img, err := vm.UnmarshalImage(data)
	if err != nil {
		return err
	}
	return v.RestoreImage(img)
}

func listImages(libraryPath string) error {
	lib, err := openLibrary(libraryPath)
	if err != nil {
		return err
	}
	defer lib.Close()
	entries, err := lib.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No saved images.")
		return nil
	}
	for _, e := range entries {
		short := "-"
		if len(e.Fingerprint) >= 12 {
			short = e.Fingerprint[:12]
		}
		fmt.Printf("%-20s %8d bytes  %s  %s\n",
			e.Name, e.Size, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), short)
	}
	return nil
}

// --- REPL ---

func runREPL(v *vm.VM, libraryPath string) {
	fmt.Println("Wren REPL (Ctrl+C clears input, Ctrl+D exits, :help for commands)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ln.SetCompleter(func(line string) []string {
		return completeLine(v, line)
	})

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			return
		}
		if strings.HasPrefix(trimmed, ":") {
			if quit := handleCommand(v, libraryPath, trimmed); quit {
				return
			}
			ln.AppendHistory(trimmed)
			continue
		}

		value, err := v.Interpret("repl", code)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		} else {
			fmt.Println(value.Debug())
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readByParseProbe accumulates lines until the source parses or fails
// with a real error. Unterminated constructs keep the continuation
// prompt going.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops whatever was typed.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := compiler.Parse(src)
		if perr == nil || !compiler.IsIncomplete(perr) {
			return src, true
		}
	}
}

// handleCommand runs a REPL meta-command. Returns true to exit.
func handleCommand(v *vm.VM, libraryPath, cmd string) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":help", ":h", ":?":
		fmt.Println("REPL commands:")
		fmt.Println("  :help, :h, :?     Show this help")
		fmt.Println("  :list             List saved images")
		fmt.Println("  :save <name>      Save the session as a named image")
		fmt.Println("  :load <name>      Replace the session with a named image")
		fmt.Println("  :quit             Exit")
	case ":quit", ":q":
		return true
	case ":list":
		if err := listImages(libraryPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	case ":save":
		if len(fields) < 2 {
			fmt.Println("usage: :save <name>")
			break
		}
		if err := saveToLibrary(v, libraryPath, fields[1], ""); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Printf("Saved image %q\n", fields[1])
		}
	case ":load":
		if len(fields) < 2 {
			fmt.Println("usage: :load <name>")
			break
		}
		if err := loadFromLibrary(v, libraryPath, fields[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Printf("Loaded image %q\n", fields[1])
		}
	default:
		fmt.Printf("Unknown command: %s (type :help for commands)\n", fields[0])
	}
	return false
}

// completeLine offers completions for the identifier being typed at the
// end of line.
func completeLine(v *vm.VM, line string) []string {
	start := len(line)
	for start > 0 {
		ch := line[start-1]
		if ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' {
			start--
			continue
		}
		break
	}
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] && strings.HasPrefix(name, prefix) {
			seen[name] = true
			out = append(out, line[:start]+name)
		}
	}
	for _, name := range v.GlobalNames() {
		add(name)
	}
	for _, signature := range v.MethodSignatures() {
		if strings.HasPrefix(signature, " ") {
			continue
		}
		name, _ := vm.SignatureArity(signature)
		add(name)
	}
	sort.Strings(out)
	return out
}
