// Package model holds the stored entities and their single-table key
// scheme. Every item carries an EntityType discriminator so full-table
// scans can select one entity kind.
package model

import (
	"strings"
	"time"
)

const (
	TypeUser          = "user"
	TypeProduct       = "product"
	TypeProject       = "project"
	TypePromptVersion = "prompt_version"
	TypeAccessGrant   = "access_grant"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	GrantEditor = "editor"
	GrantViewer = "viewer"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	EntityType   string `json:"entity_type" dynamodbav:"entity_type"`
	Email        string `json:"email" dynamodbav:"email"`
	PasswordHash string `json:"password_hash" dynamodbav:"password_hash"`
	Role         string `json:"role" dynamodbav:"role"`
	CreatedAt    string `json:"created_at" dynamodbav:"created_at"`
}

type Product struct {
	EntityType  string `json:"entity_type" dynamodbav:"entity_type"`
	ID          string `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description" dynamodbav:"description"`
	ImageURL    string `json:"image_url,omitempty" dynamodbav:"image_url,omitempty"`
	Status      string `json:"status" dynamodbav:"status"`
	CreatedAt   string `json:"created_at" dynamodbav:"created_at"`
}

type Project struct {
	EntityType  string `json:"entity_type" dynamodbav:"entity_type"`
	ID          string `json:"id" dynamodbav:"id"`
	Name        string `json:"name" dynamodbav:"name"`
	Description string `json:"description" dynamodbav:"description"`
	ProductID   string `json:"product_id" dynamodbav:"product_id"`
	Status      string `json:"status" dynamodbav:"status"`
	DocsURL     string `json:"docs_url,omitempty" dynamodbav:"docs_url,omitempty"`
	CreatedAt   string `json:"created_at" dynamodbav:"created_at"`

	// ProductName is joined in at read time from the Product table and
	// never stored.
	ProductName string `json:"product_name,omitempty" dynamodbav:"-"`
}

type PromptVersion struct {
	EntityType  string         `json:"entity_type" dynamodbav:"entity_type"`
	ProjectID   string         `json:"project_id" dynamodbav:"project_id"`
	CreatedAt   string         `json:"created_at" dynamodbav:"created_at"`
	Body        string         `json:"body" dynamodbav:"body"`
	Label       string         `json:"label" dynamodbav:"label"`
	IsStable    bool           `json:"is_stable" dynamodbav:"is_stable"`
	CreatedBy   string         `json:"created_by" dynamodbav:"created_by"`
	Description string         `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Params      map[string]any `json:"params,omitempty" dynamodbav:"params,omitempty"`
}

type AccessGrant struct {
	EntityType string `json:"entity_type" dynamodbav:"entity_type"`
	ProjectID  string `json:"project_id" dynamodbav:"project_id"`
	Email      string `json:"email" dynamodbav:"email"`
	Role       string `json:"role" dynamodbav:"role"`
	GrantedAt  string `json:"granted_at" dynamodbav:"granted_at"`
}

// NormalizeEmail is applied to every email before it is stored or
// compared. Emails are case-insensitive identifiers here.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// timestampLayout is RFC3339 with fixed-width nanoseconds. The fixed
// width matters: version sort keys depend on lexicographic order being
// chronological order, and variable-width fractions would break that.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp renders t in the stored timestamp format, always UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
