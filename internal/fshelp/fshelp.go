package fshelp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Helpers is the closed set of callables bound into a session namespace.
// Every path-taking method resolves relative paths against the session's
// virtual workdir at call time and reports failure by panicking with an
// *Error, which the engine converts into a structured execution error.
type Helpers struct {
	wd *Workdir
}

// New returns helpers bound to wd.
func New(wd *Workdir) *Helpers {
	return &Helpers{wd: wd}
}

// resolve turns path into its canonical absolute form, joining relative
// paths with the session workdir.
func (h *Helpers) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.wd.Path(), path)
	}
	abs, err := Canonicalize(path)
	if err != nil {
		errf("OSError", "resolve %s: %v", path, err)
	}
	return abs
}

// Cd changes the session's virtual working directory and returns the new
// path. With no argument it changes to the user's home directory; "~" and
// "~/..." expand to home.
func (h *Helpers) Cd(path ...string) string {
	p := "~"
	if len(path) > 0 {
		p = path[0]
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			errf("OSError", "cannot determine home directory: %v", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	target := h.resolve(p)
	if !isDir(target) {
		errf("FileNotFoundError", "Directory not found: %s", target)
	}
	h.wd.set(target)
	return target
}

// Pwd returns the session's virtual working directory.
func (h *Helpers) Pwd() string {
	return h.wd.Path()
}

// Ls lists a directory. Arguments, all optional and positional: a path
// string (default "."), then up to two bools: all (include dotfiles) and
// long (detailed one-line-per-entry format). Short mode returns []string
// with directories suffixed "/"; long mode returns a formatted string.
func (h *Helpers) Ls(args ...any) any {
	path := "."
	all, long := false, false
	nbool := 0
	for _, a := range args {
		switch v := a.(type) {
		case string:
			path = v
		case bool:
			if nbool == 0 {
				all = v
			} else {
				long = v
			}
			nbool++
		default:
			errf("TypeError", "ls: unsupported argument of type %T", a)
		}
	}

	target := h.resolve(path)
	info, err := os.Stat(target)
	if err != nil {
		errf("FileNotFoundError", "Path not found: %s", target)
	}

	type item struct {
		name  string
		dir   bool
		size  int64
		mtime time.Time
		err   error
	}
	var items []item

	if !info.IsDir() {
		items = []item{{name: filepath.Base(target), dir: false, size: info.Size(), mtime: info.ModTime()}}
	} else {
		dirents, err := os.ReadDir(target)
		if err != nil {
			errf("OSError", "ls %s: %v", target, err)
		}
		for _, de := range dirents {
			it := item{name: de.Name(), dir: de.IsDir()}
			if fi, err := de.Info(); err == nil {
				it.size = fi.Size()
				it.mtime = fi.ModTime()
			} else {
				it.err = err
			}
			items = append(items, it)
		}
		// Directories first, then case-insensitive by name.
		sort.Slice(items, func(i, j int) bool {
			if items[i].dir != items[j].dir {
				return items[i].dir
			}
			return strings.ToLower(items[i].name) < strings.ToLower(items[j].name)
		})
	}

	if !all {
		kept := items[:0]
		for _, it := range items {
			if !strings.HasPrefix(it.name, ".") {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	if !long {
		names := make([]string, 0, len(items))
		for _, it := range items {
			if it.dir {
				names = append(names, it.name+"/")
			} else {
				names = append(names, it.name)
			}
		}
		return names
	}

	lines := make([]string, 0, len(items))
	for _, it := range items {
		name := it.name
		typeChar := "-"
		if it.dir {
			name += "/"
			typeChar = "d"
		}
		if it.err != nil {
			lines = append(lines, fmt.Sprintf("?  %10s  %16s  %s (%v)", "?", "?", it.name, it.err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  %10d  %s  %s",
			typeChar, it.size, it.mtime.Format("2006-01-02 15:04"), name))
	}
	return strings.Join(lines, "\n")
}

// Cat reads a file and returns its content. Optional positional arguments:
// a string selects the text encoding (default utf-8), the first int keeps
// only the first N lines (head), the second int the last N lines (tail).
// head takes precedence over tail.
func (h *Helpers) Cat(path string, opts ...any) string {
	enc := ""
	head, tail := 0, 0
	nint := 0
	for _, o := range opts {
		switch v := o.(type) {
		case string:
			enc = v
		case int:
			if nint == 0 {
				head = v
			} else {
				tail = v
			}
			nint++
		default:
			errf("TypeError", "cat: unsupported argument of type %T", o)
		}
	}

	target := h.resolve(path)
	info, err := os.Stat(target)
	if err != nil {
		errf("FileNotFoundError", "File not found: %s", target)
	}
	if info.IsDir() {
		errf("IsADirectoryError", "Is a directory: %s", target)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		errf("OSError", "cat %s: %v", target, err)
	}
	content := decodeText(data, enc)

	if head > 0 || tail > 0 {
		lines := splitLines(content)
		if head > 0 {
			if head < len(lines) {
				lines = lines[:head]
			}
		} else if tail < len(lines) {
			lines = lines[len(lines)-tail:]
		}
		content = strings.Join(lines, "")
	}
	return content
}

// Mkdir creates a directory and returns its absolute path. Optional bools,
// in order: parents (create intermediates, default true) and existOK
// (tolerate an existing directory, default true).
func (h *Helpers) Mkdir(path string, flags ...bool) string {
	parents, existOK := true, true
	if len(flags) > 0 {
		parents = flags[0]
	}
	if len(flags) > 1 {
		existOK = flags[1]
	}

	target := h.resolve(path)
	if info, err := os.Stat(target); err == nil {
		if !info.IsDir() || !existOK {
			errf("FileExistsError", "File exists: %s", target)
		}
		return target
	}
	if parents {
		if err := os.MkdirAll(target, 0o755); err != nil {
			errf("OSError", "mkdir %s: %v", target, err)
		}
	} else if err := os.Mkdir(target, 0o755); err != nil {
		errf("OSError", "mkdir %s: %v", target, err)
	}
	return target
}

// Touch creates an empty file (ensuring parent directories exist) or
// updates the mtime of an existing one.
func (h *Helpers) Touch(path string) string {
	target := h.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		errf("OSError", "touch %s: %v", target, err)
	}
	if _, err := os.Stat(target); err == nil {
		now := time.Now()
		if err := os.Chtimes(target, now, now); err != nil {
			errf("OSError", "touch %s: %v", target, err)
		}
		return target
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		errf("OSError", "touch %s: %v", target, err)
	}
	f.Close()
	return target
}

// Rm deletes a file or directory. Directories require recursive=true
// unless empty.
func (h *Helpers) Rm(path string, recursive ...bool) string {
	rec := len(recursive) > 0 && recursive[0]
	target := h.resolve(path)
	info, err := os.Lstat(target)
	if err != nil {
		errf("FileNotFoundError", "Path not found: %s", target)
	}
	if info.IsDir() && rec {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		errf("OSError", "rm %s: %v", target, err)
	}
	return target
}

// Cp copies a file, or a directory tree recursively, and returns the
// destination path.
func (h *Helpers) Cp(src, dst string) string {
	srcPath := h.resolve(src)
	dstPath := h.resolve(dst)
	info, err := os.Stat(srcPath)
	if err != nil {
		errf("FileNotFoundError", "Source not found: %s", srcPath)
	}
	if info.IsDir() {
		if err := os.CopyFS(dstPath, os.DirFS(srcPath)); err != nil {
			errf("OSError", "cp %s: %v", srcPath, err)
		}
	} else if err := copyFile(srcPath, dstPath, info); err != nil {
		errf("OSError", "cp %s: %v", srcPath, err)
	}
	return dstPath
}

// Mv moves or renames a file or directory. The rename is atomic on a
// single filesystem; across filesystems it degrades to copy-and-delete.
func (h *Helpers) Mv(src, dst string) string {
	srcPath := h.resolve(src)
	dstPath := h.resolve(dst)
	info, err := os.Stat(srcPath)
	if err != nil {
		errf("FileNotFoundError", "Source not found: %s", srcPath)
	}
	if err := os.Rename(srcPath, dstPath); err == nil {
		return dstPath
	}
	if info.IsDir() {
		err = os.CopyFS(dstPath, os.DirFS(srcPath))
	} else {
		err = copyFile(srcPath, dstPath, info)
	}
	if err != nil {
		errf("OSError", "mv %s: %v", srcPath, err)
	}
	if err := os.RemoveAll(srcPath); err != nil {
		errf("OSError", "mv %s: %v", srcPath, err)
	}
	return dstPath
}

// Write writes content to a file, creating parent directories as needed.
// Optional positional arguments: a string selects the text encoding
// (default utf-8), a bool selects append mode (default overwrite).
func (h *Helpers) Write(path, content string, opts ...any) string {
	enc := ""
	appendMode := false
	for _, o := range opts {
		switch v := o.(type) {
		case string:
			enc = v
		case bool:
			appendMode = v
		default:
			errf("TypeError", "write: unsupported argument of type %T", o)
		}
	}

	target := h.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		errf("OSError", "write %s: %v", target, err)
	}
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		errf("OSError", "write %s: %v", target, err)
	}
	defer f.Close()
	if _, err := f.Write(encodeText(content, enc)); err != nil {
		errf("OSError", "write %s: %v", target, err)
	}
	return target
}

// Exists reports whether the path exists. Never panics on non-existence.
func (h *Helpers) Exists(path string) bool {
	_, err := os.Stat(h.resolve(path))
	return err == nil
}

// Isfile reports whether the path is a regular file.
func (h *Helpers) Isfile(path string) bool {
	info, err := os.Stat(h.resolve(path))
	return err == nil && info.Mode().IsRegular()
}

// Isdir reports whether the path is a directory.
func (h *Helpers) Isdir(path string) bool {
	return isDir(h.resolve(path))
}

// Abspath returns the canonical absolute form of path.
func (h *Helpers) Abspath(path string) string {
	return h.resolve(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// splitLines splits s into lines, keeping the line terminators, so that
// head/tail slicing round-trips through strings.Join without altering the
// original text.
func splitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// lookupEncoding maps an IANA charset name to its encoding. UTF-8 (and an
// empty name) return nil, meaning no transcoding.
func lookupEncoding(name string) encoding.Encoding {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		errf("LookupError", "unknown encoding: %s", name)
	}
	return enc
}

func decodeText(data []byte, name string) string {
	enc := lookupEncoding(name)
	if enc == nil {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		errf("ValueError", "decode %s: %v", name, err)
	}
	return string(out)
}

func encodeText(s, name string) []byte {
	enc := lookupEncoding(name)
	if enc == nil {
		return []byte(s)
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		errf("ValueError", "encode %s: %v", name, err)
	}
	return out
}
