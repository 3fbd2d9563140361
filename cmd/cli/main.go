package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nickyhof/CommitKV"
	"github.com/nickyhof/CommitKV/config"
	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/db"
	"github.com/nickyhof/CommitKV/op"
	"github.com/spf13/cobra"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

const maxHistory = 1000

// CLI holds the CLI state
type CLI struct {
	instance    *CommitKV.Instance
	user        *core.User
	database    string
	executor    *db.Executor
	out         io.Writer
	history     []string
	historyFile string
}

var flags struct {
	config   string
	data     string
	database string
	file     string
	user     string
	password string
}

var rootCmd = &cobra.Command{
	Use:          "commitkv-cli",
	Short:        "Interactive shell over a local CommitKV store",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runCLI,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.config, "config", "", "config file (.toml, .yaml or .yml)")
	f.StringVar(&flags.data, "data", "", "data directory (memory if empty)")
	f.StringVar(&flags.database, "database", "", "initial database")
	f.StringVar(&flags.file, "file", "", "file of statements to execute (non-interactive)")
	f.StringVar(&flags.user, "user", "", "run as this account instead of unrestricted")
	f.StringVar(&flags.password, "password", "", "password for --user")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCLI(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if flags.config != "" {
		loaded, err := config.Load(flags.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("data") {
		cfg.Database.Path = flags.data
	}

	printBanner()

	if cfg.Database.Path == "" {
		fmt.Printf("%sUsing memory persistence%s\n", SuccessColor, ResetColor)
	} else {
		fmt.Printf("%sUsing file persistence: %s%s\n", SuccessColor, cfg.Database.Path, ResetColor)
	}

	instance, err := CommitKV.Open(cfg)
	if err != nil {
		return err
	}

	var user *core.User
	if flags.user != "" {
		if _, err := instance.Shared.Bootstrap(); err != nil {
			return err
		}
		user, err = op.Authenticate(instance.Shared, flags.user, flags.password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}

	cli := newCLI(instance, user, os.Stdout)
	if flags.database != "" {
		if err := cli.use(flags.database); err != nil {
			return err
		}
	}

	if flags.file != "" {
		return cli.importFile(flags.file)
	}

	cli.historyFile = getHistoryPath()
	cli.loadHistory()
	cli.run(os.Stdin)
	return nil
}

func newCLI(instance *CommitKV.Instance, user *core.User, out io.Writer) *CLI {
	cli := &CLI{
		instance: instance,
		user:     user,
		database: instance.Config().Database.Default,
		out:      out,
		history:  make([]string, 0),
	}
	cli.executor = instance.Session(cli.database, user)
	return cli
}

func printBanner() {
	fmt.Println()
	bannerWidth := 39 // inner width of the banner box
	versionLine := fmt.Sprintf("CommitKV v%s", Version)
	padding := max(bannerWidth-len(versionLine)-2, 0) // -2 for "  " margins
	leftPad := padding / 2
	rightPad := padding - leftPad

	fmt.Printf("%s%s╔═══════════════════════════════════════╗%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s║ %*s%s%*s ║%s\n", BoldColor, PromptColor, leftPad, "", versionLine, rightPad, "", ResetColor)
	fmt.Printf("%s%s║   Git-backed Key-Value Store          ║%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Printf("%s%s╚═══════════════════════════════════════╝%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println()
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func (cli *CLI) run(in io.Reader) {
	reader := bufio.NewReader(in)
	var multiLineBuffer strings.Builder

	for {
		fmt.Fprint(cli.out, cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			cli.saveHistory()
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		if strings.TrimSpace(input) == "" {
			continue
		}

		// Dot commands are only recognised outside a multi-line statement.
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ".") {
			if cli.handleCommand(input) {
				cli.saveHistory()
				return
			}
			continue
		}

		// Accumulate until the statement ends with a semicolon
		multiLineBuffer.WriteString(input)
		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString(" ")
			continue
		}

		stmt := strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
		multiLineBuffer.Reset()
		if stmt == "" {
			continue
		}

		cli.addToHistory(stmt + ";")
		cli.execute(stmt)
	}
}

// execute runs one statement and renders the outcome. It reports whether
// the statement succeeded.
func (cli *CLI) execute(stmt string) bool {
	start := time.Now()
	resp, werr := cli.executor.ExecuteQuery(stmt)
	if werr != nil {
		renderError(cli.out, werr)
		return false
	}
	renderResponse(cli.out, resp, time.Since(start))
	return true
}

func (cli *CLI) use(database string) error {
	if err := op.ValidateName(database); err != nil {
		return err
	}
	cli.database = database
	cli.executor = cli.instance.Session(database, cli.user)
	return nil
}

// session is the storage view the dot commands work through.
func (cli *CLI) session() *op.Interface {
	return op.NewInterface(cli.instance.Shared, cli.database, cli.user)
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%scommitkv (%s)>%s ", PromptColor, cli.database, ResetColor)
}

func (cli *CLI) errorf(format string, args ...any) {
	fmt.Fprintf(cli.out, "%s✗ "+format+"%s\n", append(append([]any{ErrorColor}, args...), ResetColor)...)
}

func (cli *CLI) successf(format string, args ...any) {
	fmt.Fprintf(cli.out, "%s✓ "+format+"%s\n", append(append([]any{SuccessColor}, args...), ResetColor)...)
}

// handleCommand runs a dot command and reports whether the CLI should exit.
func (cli *CLI) handleCommand(input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return false
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
		return true

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".databases", ".dbs":
		cli.showDatabases()

	case ".keys":
		cli.execute("list")

	case ".use":
		if len(parts) < 2 {
			cli.errorf("Usage: .use <database>")
			break
		}
		if err := cli.use(parts[1]); err != nil {
			cli.errorf("%v", err)
			break
		}
		cli.successf("Using database: %s", cli.database)

	case ".log":
		limit := 20
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				cli.errorf("Usage: .log [count]")
				break
			}
			limit = n
		}
		cli.showLog(limit)

	case ".snapshot":
		if len(parts) < 2 {
			cli.errorf("Usage: .snapshot <name>")
			break
		}
		if err := cli.session().Snapshot(parts[1]); err != nil {
			cli.errorf("%v", err)
			break
		}
		cli.successf("Snapshot %s of %s created", parts[1], cli.database)

	case ".recover":
		if len(parts) < 2 {
			cli.errorf("Usage: .recover <name>")
			break
		}
		if err := cli.session().Recover(parts[1]); err != nil {
			cli.errorf("%v", err)
			break
		}
		cli.successf("%s recovered to snapshot %s", cli.database, parts[1])

	case ".clear", ".cls":
		fmt.Fprint(cli.out, "\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Fprintf(cli.out, "CommitKV version %s\n", Version)

	case ".import":
		if len(parts) < 2 {
			cli.errorf("Usage: .import <file>")
			break
		}
		if err := cli.importFile(parts[1]); err != nil {
			cli.errorf("Error: %v", err)
		}

	default:
		cli.errorf("Unknown command: %s (type .help for commands)", parts[0])
	}

	return false
}

func (cli *CLI) printHelp() {
	w := cli.out
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w, "  .help, .h         Show this help message")
	fmt.Fprintln(w, "  .quit, .exit      Exit the CLI")
	fmt.Fprintln(w, "  .databases        List all databases")
	fmt.Fprintln(w, "  .keys             List keys in the current database")
	fmt.Fprintln(w, "  .use <db>         Switch the current database")
	fmt.Fprintln(w, "  .log [n]          Show the last n commits of the current database")
	fmt.Fprintln(w, "  .snapshot <name>  Tag the current database state")
	fmt.Fprintln(w, "  .recover <name>   Reset the current database to a snapshot")
	fmt.Fprintln(w, "  .import <file>    Execute statements from a file")
	fmt.Fprintln(w, "  .history          Show command history")
	fmt.Fprintln(w, "  .clear            Clear the screen")
	fmt.Fprintln(w, "  .version          Show version info")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sStatements%s (end with ;):\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w, `  insert {"name": "Alice"} into <key>;`)
	fmt.Fprintln(w, `  update {"name": "Bob"} into <key>;`)
	fmt.Fprintln(w, "  get <key>;")
	fmt.Fprintln(w, "  delete <key>;")
	fmt.Fprintln(w, "  list;")
	fmt.Fprintln(w, "  insert user (<name>, password = '...', permission = 'read');")
	fmt.Fprintln(w, "  update user (<name>, password = '...');")
	fmt.Fprintln(w, "  delete user <name>;")
	fmt.Fprintln(w, "  delete database [<name>];")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%sPermissions:%s read, write, read_and_write, admin\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(w)
}

func (cli *CLI) showDatabases() {
	names := cli.instance.Shared.Databases.Names()
	if len(names) == 0 {
		fmt.Fprintln(cli.out, "(no databases)")
		return
	}

	table := NewTable(cli.out)
	table.Header([]string{"database"})
	for _, name := range names {
		table.Row([]string{name})
	}
	table.Render()
}

func (cli *CLI) showLog(limit int) {
	history, err := cli.session().History(limit)
	if err != nil {
		cli.errorf("%v", err)
		return
	}
	renderHistory(cli.out, history)
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	if len(cli.history) > maxHistory {
		cli.history = cli.history[len(cli.history)-maxHistory:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Fprintln(cli.out, "No command history")
		return
	}

	start := max(len(cli.history)-20, 0)
	for i := start; i < len(cli.history); i++ {
		fmt.Fprintf(cli.out, "  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".commitkv_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := max(len(cli.history)-maxHistory, 0)
	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile reads and executes statements from a file
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	successCount := 0
	errorCount := 0

	for i, stmt := range splitStatements(string(data)) {
		resp, werr := cli.executor.ExecuteQuery(stmt)
		if werr != nil {
			fmt.Fprintf(cli.out, "%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Fprintf(cli.out, "      %s: %s\n", werr.Status, werr.Message)
			errorCount++
			continue
		}

		successCount++
		detail := ""
		if keys, ok := resp.Body.([]string); ok {
			detail = fmt.Sprintf(" (%d keys)", len(keys))
		}
		fmt.Fprintf(cli.out, "%s[%d] ✓ %s%s%s\n", SuccessColor, i+1, truncate(stmt, 50), detail, ResetColor)
	}

	fmt.Fprintf(cli.out, "\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits file content into individual statements. Semicolons
// inside quoted strings do not end a statement and "--" starts a comment.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if (ch == '\'' || ch == '"') && (i == 0 || content[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		if !inString && ch == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
