package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

const (
	// DirectoryName is the hidden directory holding all forker records under the base path.
	DirectoryName = ".forker"

	forkInfoFileNameConstant        = "fork_info.json"
	peersFileNameConstant           = "peers.json"
	pullRequestsFileNameConstant    = "prs.json"
	directoryPermissionsConstant    = fs.FileMode(0o755)
	filePermissionsConstant         = fs.FileMode(0o644)
	jsonIndentConstant              = "  "
	hiddenEntryPrefixConstant       = "."
	sanitizedReplacementRune        = '_'
	basePathRequiredMessageConstant = "storage base path not configured"
	nameRequiredMessageConstant     = "repository name required"
	errorTemplateConstant           = "storage %s failed for %s: %s"
	errorWithoutPathTemplate        = "storage %s failed: %s"
)

// Operation names a storage action reported in errors.
type Operation string

// Storage operations.
const (
	OperationEnsureDirectory Operation = Operation("ensure directory")
	OperationWrite           Operation = Operation("write")
	OperationRead            Operation = Operation("read")
	OperationEncode          Operation = Operation("encode")
	OperationDecode          Operation = Operation("decode")
	OperationList            Operation = Operation("list")
	OperationDelete          Operation = Operation("delete")
)

// ErrBasePathNotConfigured indicates the store was constructed without a base path.
var ErrBasePathNotConfigured = errors.New(basePathRequiredMessageConstant)

// ErrRepositoryNameRequired indicates a blank repository name, which would otherwise address the storage root.
var ErrRepositoryNameRequired = errors.New(nameRequiredMessageConstant)

// Error reports a filesystem or serialization failure inside the store.
type Error struct {
	Operation Operation
	Path      string
	Cause     error
}

// Error describes the storage failure.
func (storageError Error) Error() string {
	if len(storageError.Path) == 0 {
		return fmt.Sprintf(errorWithoutPathTemplate, storageError.Operation, storageError.Cause)
	}
	return fmt.Sprintf(errorTemplateConstant, storageError.Operation, storageError.Path, storageError.Cause)
}

// Unwrap exposes the underlying cause.
func (storageError Error) Unwrap() error {
	return storageError.Cause
}

// Store reads and writes per-repository records under <base>/.forker.
type Store struct {
	fileSystem FileSystem
	rootPath   string
}

// NewStore constructs a Store rooted at basePath. A nil fileSystem selects OSFileSystem.
func NewStore(basePath string, fileSystem FileSystem) (*Store, error) {
	trimmedBasePath := strings.TrimSpace(basePath)
	if len(trimmedBasePath) == 0 {
		return nil, ErrBasePathNotConfigured
	}
	if fileSystem == nil {
		fileSystem = OSFileSystem{}
	}
	return &Store{
		fileSystem: fileSystem,
		rootPath:   filepath.Join(trimmedBasePath, DirectoryName),
	}, nil
}

// EnsureRoot creates the storage root when missing and returns its path.
func (store *Store) EnsureRoot() (string, error) {
	if mkdirError := store.fileSystem.MkdirAll(store.rootPath, directoryPermissionsConstant); mkdirError != nil {
		return "", Error{Operation: OperationEnsureDirectory, Path: store.rootPath, Cause: mkdirError}
	}
	return store.rootPath, nil
}

// DirectoryFor creates when missing and returns the directory holding records for repositoryName.
func (store *Store) DirectoryFor(repositoryName string) (string, error) {
	if _, rootError := store.EnsureRoot(); rootError != nil {
		return "", rootError
	}
	directoryPath, nameError := store.repositoryDirectory(repositoryName)
	if nameError != nil {
		return "", Error{Operation: OperationEnsureDirectory, Path: store.rootPath, Cause: nameError}
	}
	if mkdirError := store.fileSystem.MkdirAll(directoryPath, directoryPermissionsConstant); mkdirError != nil {
		return "", Error{Operation: OperationEnsureDirectory, Path: directoryPath, Cause: mkdirError}
	}
	return directoryPath, nil
}

// SaveForkInfo replaces the fork record of repositoryName.
func (store *Store) SaveForkInfo(repositoryName string, info ForkInfo) error {
	return store.saveRecord(repositoryName, forkInfoFileNameConstant, info)
}

// LoadForkInfo returns the fork record of repositoryName. The boolean is false when no record exists.
func (store *Store) LoadForkInfo(repositoryName string) (ForkInfo, bool, error) {
	var info ForkInfo
	found, loadError := store.loadRecord(repositoryName, forkInfoFileNameConstant, &info)
	if loadError != nil || !found {
		return ForkInfo{}, false, loadError
	}
	// A literal null decodes to the zero record and counts as absent.
	if info.isZero() {
		return ForkInfo{}, false, nil
	}
	return info, true, nil
}

// SavePeers replaces the peer list of repositoryName.
func (store *Store) SavePeers(repositoryName string, peers []Peer) error {
	if peers == nil {
		peers = []Peer{}
	}
	return store.saveRecord(repositoryName, peersFileNameConstant, peers)
}

// LoadPeers returns the peer list of repositoryName, or an empty list when none was saved.
func (store *Store) LoadPeers(repositoryName string) ([]Peer, error) {
	peers := []Peer{}
	if _, loadError := store.loadRecord(repositoryName, peersFileNameConstant, &peers); loadError != nil {
		return nil, loadError
	}
	if peers == nil {
		peers = []Peer{}
	}
	return peers, nil
}

// SavePullRequests replaces the pull request list of repositoryName.
func (store *Store) SavePullRequests(repositoryName string, pullRequests []PullRequest) error {
	if pullRequests == nil {
		pullRequests = []PullRequest{}
	}
	return store.saveRecord(repositoryName, pullRequestsFileNameConstant, pullRequests)
}

// LoadPullRequests returns the pull request list of repositoryName, or an empty list when none was saved.
func (store *Store) LoadPullRequests(repositoryName string) ([]PullRequest, error) {
	pullRequests := []PullRequest{}
	if _, loadError := store.loadRecord(repositoryName, pullRequestsFileNameConstant, &pullRequests); loadError != nil {
		return nil, loadError
	}
	if pullRequests == nil {
		pullRequests = []PullRequest{}
	}
	return pullRequests, nil
}

// ListTracked returns the names of the non-hidden repository directories under the storage root.
func (store *Store) ListTracked() ([]string, error) {
	rootPath, rootError := store.EnsureRoot()
	if rootError != nil {
		return nil, rootError
	}

	entries, readError := store.fileSystem.ReadDir(rootPath)
	if readError != nil {
		return nil, Error{Operation: OperationList, Path: rootPath, Cause: readError}
	}

	trackedNames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), hiddenEntryPrefixConstant) {
			continue
		}
		trackedNames = append(trackedNames, entry.Name())
	}
	return trackedNames, nil
}

// DeleteData removes every record of repositoryName. Missing data and blank names are not errors;
// a blank name never touches the storage root.
func (store *Store) DeleteData(repositoryName string) error {
	if _, rootError := store.EnsureRoot(); rootError != nil {
		return rootError
	}
	directoryPath, nameError := store.repositoryDirectory(repositoryName)
	if nameError != nil {
		return nil
	}
	if _, statError := store.fileSystem.Stat(directoryPath); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil
		}
		return Error{Operation: OperationDelete, Path: directoryPath, Cause: statError}
	}
	if removeError := store.fileSystem.RemoveAll(directoryPath); removeError != nil {
		return Error{Operation: OperationDelete, Path: directoryPath, Cause: removeError}
	}
	return nil
}

func (store *Store) saveRecord(repositoryName string, fileName string, record any) error {
	directoryPath, directoryError := store.DirectoryFor(repositoryName)
	if directoryError != nil {
		return directoryError
	}

	filePath := filepath.Join(directoryPath, fileName)
	encoded, encodeError := json.MarshalIndent(record, "", jsonIndentConstant)
	if encodeError != nil {
		return Error{Operation: OperationEncode, Path: filePath, Cause: encodeError}
	}

	if writeError := store.fileSystem.WriteFile(filePath, append(encoded, '\n'), filePermissionsConstant); writeError != nil {
		return Error{Operation: OperationWrite, Path: filePath, Cause: writeError}
	}
	return nil
}

// loadRecord decodes fileName into target and reports whether the file existed.
// Loading never creates the repository directory so untracked names stay untracked.
func (store *Store) loadRecord(repositoryName string, fileName string, target any) (bool, error) {
	if _, rootError := store.EnsureRoot(); rootError != nil {
		return false, rootError
	}

	directoryPath, nameError := store.repositoryDirectory(repositoryName)
	if nameError != nil {
		return false, nil
	}
	filePath := filepath.Join(directoryPath, fileName)
	content, readError := store.fileSystem.ReadFile(filePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return false, nil
		}
		return false, Error{Operation: OperationRead, Path: filePath, Cause: readError}
	}

	if decodeError := json.Unmarshal(content, target); decodeError != nil {
		return false, Error{Operation: OperationDecode, Path: filePath, Cause: decodeError}
	}
	return true, nil
}

func (store *Store) repositoryDirectory(repositoryName string) (string, error) {
	if len(strings.TrimSpace(repositoryName)) == 0 {
		return "", ErrRepositoryNameRequired
	}
	return filepath.Join(store.rootPath, SanitizeName(repositoryName)), nil
}

// SanitizeName lower-cases repositoryName and replaces every character outside [a-z0-9_-] with an underscore.
func SanitizeName(repositoryName string) string {
	return strings.Map(func(character rune) rune {
		switch {
		case character >= 'a' && character <= 'z':
			return character
		case character >= 'A' && character <= 'Z':
			return character + ('a' - 'A')
		case character >= '0' && character <= '9':
			return character
		case character == '_' || character == '-':
			return character
		default:
			return sanitizedReplacementRune
		}
	}, repositoryName)
}
