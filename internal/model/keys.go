package model

import "promptadmin/internal/keyval"

// Key scheme of the single table:
//
//	User               <email>              METADATA
//	Product            PRODUCT#<id>         METADATA
//	Project            PROJECT#<id>         METADATA
//	PromptVersion      PROMPT#<projectId>   VERSION#<rfc3339>
//	PromptAccessGrant  PROMPT#<projectId>   ACCESS#<email>
//
// Versions and grants share the PROMPT# partition so "everything about a
// project's prompts" is one key range, split by sort-key prefix.
const (
	metadataSort  = "METADATA"
	productPrefix = "PRODUCT#"
	projectPrefix = "PROJECT#"
	promptPrefix  = "PROMPT#"
	VersionPrefix = "VERSION#"
	AccessPrefix  = "ACCESS#"
)

func UserKey(email string) keyval.Key {
	return keyval.Key{Partition: NormalizeEmail(email), Sort: metadataSort}
}

func ProductKey(id string) keyval.Key {
	return keyval.Key{Partition: productPrefix + id, Sort: metadataSort}
}

func ProjectKey(id string) keyval.Key {
	return keyval.Key{Partition: projectPrefix + id, Sort: metadataSort}
}

// PromptPartition is the shared partition of a project's versions and
// grants.
func PromptPartition(projectID string) string {
	return promptPrefix + projectID
}

func VersionKey(projectID, createdAt string) keyval.Key {
	return keyval.Key{Partition: PromptPartition(projectID), Sort: VersionPrefix + createdAt}
}

func GrantKey(projectID, email string) keyval.Key {
	return keyval.Key{Partition: PromptPartition(projectID), Sort: AccessPrefix + NormalizeEmail(email)}
}
