package githubcli

import (
	"fmt"
	"strings"

	"github.com/cli/go-gh/v2/pkg/repository"
)

const (
	schemeSeparatorConstant           = "://"
	scpUserPrefixConstant             = "git@"
	scpHostDelimiterConstant          = ":"
	userDelimiterConstant             = "@"
	pathSeparatorConstant             = "/"
	defaultHostConstant               = "github.com"
	repositoryURLTemplateConstant     = "https://github.com/%s/%s"
	fullNameTemplateConstant          = "%s/%s"
	bareReferenceSeparatorsCount      = 1
	hostOwnerRepositorySegmentsCount  = 3
	accountPathTrailingSeparatorsTrim = "/"
)

// RepositoryReference identifies a repository by owner and name.
type RepositoryReference struct {
	Owner      string
	Repository string
}

// FullName renders the reference as owner/name.
func (reference RepositoryReference) FullName() string {
	return fmt.Sprintf(fullNameTemplateConstant, reference.Owner, reference.Repository)
}

// URL renders the canonical github.com address of the reference.
func (reference RepositoryReference) URL() string {
	return fmt.Sprintf(repositoryURLTemplateConstant, reference.Owner, reference.Repository)
}

// ParseRepositoryURL extracts owner and repository name from https, http, ssh and scp-style
// git addresses as well as bare owner/repo references. Path segments after the repository
// name in a URL, such as /tree/main, are ignored.
func ParseRepositoryURL(repositoryURL string) (RepositoryReference, error) {
	trimmedURL := strings.TrimSpace(repositoryURL)
	if len(trimmedURL) == 0 {
		return RepositoryReference{}, InvalidRepositoryURLError{Input: repositoryURL}
	}

	normalizedURL := normalizeRemoteAddress(trimmedURL)
	if !isRemoteAddress(normalizedURL) && strings.Count(normalizedURL, pathSeparatorConstant) != bareReferenceSeparatorsCount {
		return RepositoryReference{}, InvalidRepositoryURLError{Input: repositoryURL}
	}

	parsedRepository, parseError := repository.ParseWithHost(normalizedURL, defaultHostConstant)
	if parseError != nil {
		return RepositoryReference{}, InvalidRepositoryURLError{Input: repositoryURL, Cause: parseError}
	}
	if len(parsedRepository.Owner) == 0 || len(parsedRepository.Name) == 0 {
		return RepositoryReference{}, InvalidRepositoryURLError{Input: repositoryURL}
	}
	return RepositoryReference{Owner: parsedRepository.Owner, Repository: parsedRepository.Name}, nil
}

// AccountUsername returns the username portion of an account given as a name or profile URL.
func AccountUsername(account string) string {
	trimmedAccount := strings.TrimRight(strings.TrimSpace(account), accountPathTrailingSeparatorsTrim)
	separatorIndex := strings.LastIndex(trimmedAccount, pathSeparatorConstant)
	if separatorIndex == -1 {
		return trimmedAccount
	}
	return trimmedAccount[separatorIndex+1:]
}

func isRemoteAddress(address string) bool {
	return strings.Contains(address, schemeSeparatorConstant) || strings.HasPrefix(address, scpUserPrefixConstant)
}

// normalizeRemoteAddress gives user-less scp-style addresses the git user and drops URL path
// segments that follow owner/repo so the address names exactly one repository.
func normalizeRemoteAddress(address string) string {
	schemeIndex := strings.Index(address, schemeSeparatorConstant)
	if schemeIndex == -1 {
		if strings.Contains(address, scpHostDelimiterConstant) && !strings.Contains(address, userDelimiterConstant) {
			return scpUserPrefixConstant + address
		}
		return address
	}

	remainder := address[schemeIndex+len(schemeSeparatorConstant):]
	segments := strings.SplitN(remainder, pathSeparatorConstant, hostOwnerRepositorySegmentsCount+1)
	if len(segments) <= hostOwnerRepositorySegmentsCount {
		return address
	}
	return address[:schemeIndex+len(schemeSeparatorConstant)] + strings.Join(segments[:hostOwnerRepositorySegmentsCount], pathSeparatorConstant)
}
