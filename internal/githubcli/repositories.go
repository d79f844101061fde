package githubcli

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/forker/internal/execshell"
)

const (
	repoSubcommandConstant           = "repo"
	forkSubcommandConstant           = "fork"
	viewSubcommandConstant           = "view"
	listSubcommandConstant           = "list"
	cloneDisabledFlagConstant        = "--clone=false"
	remoteDisabledFlagConstant       = "--remote=false"
	forkFilterFlagConstant           = "--fork"
	jsonFlagConstant                 = "--json"
	limitFlagConstant                = "--limit"
	userForkJSONFieldsConstant       = "name,url,description,updatedAt,parent"
	repositoryViewJSONFieldsConstant = "name,url,description,updatedAt,parent,isFork,defaultBranchRef"
	repositoryFieldNameConstant      = "repository"
	accountFieldNameConstant         = "account"
	ownerFieldNameConstant           = "owner"
	requiredValueMessageConstant     = "value required"
	logFieldRepositoryConstant       = "repository"
	logFieldVisitedConstant          = "visited"
	rootCycleLogMessageConstant      = "Repository parent chain loops; using the starting repository as root"
)

// ForkedRepository describes a fork created by ForkRepository.
type ForkedRepository struct {
	OriginalURL string
	ForkURL     string
	RootURL     string
	Name        string
	Owner       string
	CreatedAt   string
}

// UserFork is a fork owned by an account, with its root resolved from the inline parent chain.
type UserFork struct {
	Name        string
	URL         string
	Description string
	UpdatedAt   string
	RootURL     string
}

// RepositoryInfo holds repository metadata returned by gh repo view.
type RepositoryInfo struct {
	Name          string
	URL           string
	Description   string
	UpdatedAt     string
	IsFork        bool
	ParentURL     string
	DefaultBranch string
}

// RootRepository identifies the non-fork repository at the top of a fork chain.
type RootRepository struct {
	URL   string
	Owner string
	Name  string
}

type parentPayload struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	IsFork bool   `json:"isFork"`
	Owner  struct {
		Login string `json:"login"`
	} `json:"owner"`
	Parent *parentPayload `json:"parent"`
}

// resolvedURL returns the parent address, deriving it from owner and name when gh omits url.
func (parent *parentPayload) resolvedURL() string {
	if parent == nil {
		return ""
	}
	if trimmedURL := strings.TrimSpace(parent.URL); len(trimmedURL) > 0 {
		return trimmedURL
	}
	if len(parent.Owner.Login) == 0 || len(parent.Name) == 0 {
		return ""
	}
	return RepositoryReference{Owner: parent.Owner.Login, Repository: parent.Name}.URL()
}

// ForkRepository forks repositoryURL without cloning and describes the resulting fork under account.
func (client *Client) ForkRepository(executionContext context.Context, repositoryURL string, account string) (ForkedRepository, error) {
	reference, parseError := ParseRepositoryURL(repositoryURL)
	if parseError != nil {
		return ForkedRepository{}, parseError
	}
	username := AccountUsername(account)
	if len(username) == 0 {
		return ForkedRepository{}, InvalidInputError{FieldName: accountFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			forkSubcommandConstant,
			reference.FullName(),
			cloneDisabledFlagConstant,
			remoteDisabledFlagConstant,
		},
	}
	if _, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails); executionError != nil {
		return ForkedRepository{}, OperationError{Operation: OperationForkRepository, Cause: executionError}
	}

	forkReference := RepositoryReference{Owner: username, Repository: reference.Repository}
	forkInfo, infoError := client.GetRepositoryInfo(executionContext, forkReference.FullName())
	if infoError != nil {
		return ForkedRepository{}, infoError
	}

	rootRepository, rootError := client.FindRootRepository(executionContext, reference.Owner, reference.Repository)
	if rootError != nil {
		return ForkedRepository{}, rootError
	}

	return ForkedRepository{
		OriginalURL: repositoryURL,
		ForkURL:     forkInfo.URL,
		RootURL:     rootRepository.URL,
		Name:        reference.Repository,
		Owner:       username,
		CreatedAt:   client.clock().Format(time.RFC3339),
	}, nil
}

// ListUserForks lists the forks owned by account, which may be a username or a profile URL.
func (client *Client) ListUserForks(executionContext context.Context, account string) ([]UserFork, error) {
	username := AccountUsername(account)
	if len(username) == 0 {
		return nil, InvalidInputError{FieldName: accountFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			listSubcommandConstant,
			username,
			forkFilterFlagConstant,
			jsonFlagConstant,
			userForkJSONFieldsConstant,
			limitFlagConstant,
			strconv.Itoa(client.forkListLimit),
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: OperationListUserForks, Cause: executionError}
	}

	var response []struct {
		Name        string         `json:"name"`
		URL         string         `json:"url"`
		Description string         `json:"description"`
		UpdatedAt   string         `json:"updatedAt"`
		Parent      *parentPayload `json:"parent"`
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return nil, ResponseDecodingError{Operation: OperationListUserForks, Cause: decodingError}
	}

	userForks := make([]UserFork, 0, len(response))
	for _, repositoryEntry := range response {
		userForks = append(userForks, UserFork{
			Name:        repositoryEntry.Name,
			URL:         repositoryEntry.URL,
			Description: repositoryEntry.Description,
			UpdatedAt:   repositoryEntry.UpdatedAt,
			RootURL:     rootFromParent(repositoryEntry.Parent),
		})
	}
	return userForks, nil
}

// GetRepositoryInfo retrieves metadata for the owner/name repository.
func (client *Client) GetRepositoryInfo(executionContext context.Context, fullName string) (RepositoryInfo, error) {
	repositoryIdentifier := strings.TrimSpace(fullName)
	if len(repositoryIdentifier) == 0 {
		return RepositoryInfo{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repositoryViewJSONFieldsConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryInfo{}, OperationError{Operation: OperationGetRepositoryInfo, Cause: executionError}
	}

	var response struct {
		Name             string         `json:"name"`
		URL              string         `json:"url"`
		Description      string         `json:"description"`
		UpdatedAt        string         `json:"updatedAt"`
		IsFork           bool           `json:"isFork"`
		Parent           *parentPayload `json:"parent"`
		DefaultBranchRef *struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return RepositoryInfo{}, ResponseDecodingError{Operation: OperationGetRepositoryInfo, Cause: decodingError}
	}

	repositoryInfo := RepositoryInfo{
		Name:        response.Name,
		URL:         response.URL,
		Description: response.Description,
		UpdatedAt:   response.UpdatedAt,
		IsFork:      response.IsFork,
		ParentURL:   response.Parent.resolvedURL(),
	}
	if response.DefaultBranchRef != nil {
		repositoryInfo.DefaultBranch = response.DefaultBranchRef.Name
	}
	return repositoryInfo, nil
}

// FindRootRepository walks parent links from owner/repository until it reaches a non-fork.
// A parent chain that revisits a repository yields the starting repository as root.
func (client *Client) FindRootRepository(executionContext context.Context, owner string, repository string) (RootRepository, error) {
	if len(strings.TrimSpace(owner)) == 0 {
		return RootRepository{}, InvalidInputError{FieldName: ownerFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(repository)) == 0 {
		return RootRepository{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	start := RepositoryReference{Owner: owner, Repository: repository}
	current := start
	visited := make(map[string]struct{})

	for {
		fullName := current.FullName()
		if _, seen := visited[fullName]; seen {
			break
		}
		visited[fullName] = struct{}{}

		repositoryInfo, infoError := client.GetRepositoryInfo(executionContext, fullName)
		if infoError != nil {
			return RootRepository{}, infoError
		}

		if !repositoryInfo.IsFork || len(repositoryInfo.ParentURL) == 0 {
			return RootRepository{URL: repositoryInfo.URL, Owner: current.Owner, Name: current.Repository}, nil
		}

		parentReference, parseError := ParseRepositoryURL(repositoryInfo.ParentURL)
		if parseError != nil {
			return RootRepository{}, parseError
		}
		current = parentReference
	}

	client.logger.Debug(rootCycleLogMessageConstant,
		zap.String(logFieldRepositoryConstant, start.FullName()),
		zap.Int(logFieldVisitedConstant, len(visited)),
	)
	return RootRepository{URL: start.URL(), Owner: owner, Name: repository}, nil
}

func rootFromParent(parent *parentPayload) string {
	if parent == nil {
		return ""
	}
	if parent.IsFork && parent.Parent != nil {
		return rootFromParent(parent.Parent)
	}
	return parent.resolvedURL()
}
