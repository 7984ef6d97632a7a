package core

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"module-tool/internal/types"
)

const ledgerDelimiter = "|"

// EncodeLedger renders a ledger as "verb|arg[|arg]" lines: adds, then
// updates, then mkdirs. The delimiter is not escaped, so paths containing
// '|' cannot be represented unambiguously.
func EncodeLedger(files types.InstalledFiles) []byte {
	var buf bytes.Buffer
	for _, path := range files.Adds {
		fmt.Fprintf(&buf, "%s|%s\n", types.LedgerEntryAdd, path)
	}
	for _, update := range files.Updates {
		fmt.Fprintf(&buf, "%s|%s|%s\n", types.LedgerEntryUpdate, update.Path, update.Backup)
	}
	for _, path := range files.Mkdirs {
		fmt.Fprintf(&buf, "%s|%s\n", types.LedgerEntryMkdir, path)
	}
	return buf.Bytes()
}

// DecodeLedger parses a ledger written by EncodeLedger. Blank lines are
// skipped; any other line that does not parse is an error.
func DecodeLedger(moduleID string, data []byte) (types.InstalledFiles, error) {
	files := types.NewInstalledFiles(moduleID)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		verb, rest, ok := strings.Cut(line, ledgerDelimiter)
		if !ok || rest == "" {
			return types.InstalledFiles{}, corruptLedger(moduleID, lineNo, line)
		}
		switch types.LedgerEntryKind(verb) {
		case types.LedgerEntryAdd:
			files = files.WithAdd(rest)
		case types.LedgerEntryMkdir:
			files = files.WithMkdir(rest)
		case types.LedgerEntryUpdate:
			path, backup, ok := strings.Cut(rest, ledgerDelimiter)
			if !ok || path == "" || backup == "" {
				return types.InstalledFiles{}, corruptLedger(moduleID, lineNo, line)
			}
			files = files.WithUpdate(path, backup)
		default:
			return types.InstalledFiles{}, corruptLedger(moduleID, lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return types.InstalledFiles{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read ledger for " + moduleID).
			WithCause(err)
	}
	return files, nil
}

func corruptLedger(moduleID string, lineNo int, line string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("corrupt ledger for %s at line %d: %q", moduleID, lineNo, line))
}
