// Package directory provisions and enumerates accounts in an LDAP
// directory. It never touches attendance data; failures come back as
// *Error values whose Kind a façade turns into a message for the user.
package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"fichaje/internal/worker"
)

// Kind classifies a directory failure.
type Kind int

const (
	Unknown Kind = iota
	AlreadyExists
	InvalidCredentials
	Unreachable
)

func (k Kind) String() string {
	switch k {
	case AlreadyExists:
		return "already exists"
	case InvalidCredentials:
		return "invalid credentials"
	case Unreachable:
		return "unreachable"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("directory %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the text shown to an administrator.
func (e *Error) Message() string {
	switch e.Kind {
	case AlreadyExists:
		return "The account already exists in the directory"
	case InvalidCredentials:
		return "The directory rejected the service credentials"
	case Unreachable:
		return "The directory server cannot be reached"
	}
	return fmt.Sprintf("Directory error: %v", e.Err)
}

// KindOf returns the Kind of err, or Unknown when err did not come from
// this package.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return Unknown
}

func classify(op string, err error) *Error {
	kind := Unknown
	switch {
	case ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists):
		kind = AlreadyExists
	case ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials):
		kind = InvalidCredentials
	case ldap.IsErrorWithCode(err, ldap.ErrorNetwork),
		ldap.IsErrorWithCode(err, ldap.LDAPResultUnavailable),
		ldap.IsErrorWithCode(err, ldap.LDAPResultServerDown):
		kind = Unreachable
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Account is a person entry in the directory.
type Account struct {
	DN        string      `json:"dn"`
	Username  string      `json:"username"`
	FirstName string      `json:"first_name,omitempty"`
	LastName  string      `json:"last_name,omitempty"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Password  string      `json:"-"`
	Role      worker.Role `json:"role,omitempty"`
	Staff     bool        `json:"staff,omitempty"`
}

// Groups lists the groups an account with the given role joins.
func Groups(role worker.Role, staff bool) []string {
	groups := []string{"active"}
	switch role {
	case worker.RoleAdmin:
		groups = append(groups, "admin", "staff", "superuser")
	case worker.RoleHR:
		groups = append(groups, "hr")
	case worker.RoleTech:
		groups = append(groups, "tech", "staff")
	default:
		groups = append(groups, "user")
	}
	if staff && role != worker.RoleAdmin && role != worker.RoleTech {
		groups = append(groups, "staff")
	}
	return groups
}

// Conn is the subset of *ldap.Conn the client uses.
type Conn interface {
	Bind(username, password string) error
	Add(req *ldap.AddRequest) error
	Modify(req *ldap.ModifyRequest) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a connection to the directory.
type Dialer func(url string) (Conn, error)

func DialURL(url string) (Conn, error) {
	conn, err := ldap.DialURL(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type Config struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
}

func (c Config) usersDN() string {
	return "ou=users," + c.BaseDN
}

func (c Config) groupsDN() string {
	return "ou=groups," + c.BaseDN
}

func (c Config) userDN(username string) string {
	return fmt.Sprintf("uid=%s,%s", username, c.usersDN())
}

func (c Config) groupDN(group string) string {
	return fmt.Sprintf("cn=%s,%s", group, c.groupsDN())
}

type Client struct {
	cfg  Config
	dial Dialer
	log  *zap.Logger
}

func NewClient(cfg Config, dial Dialer, log *zap.Logger) *Client {
	if dial == nil {
		dial = DialURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{cfg: cfg, dial: dial, log: log}
}

func (c *Client) connect(op string) (Conn, error) {
	if c.cfg.URL == "" {
		return nil, &Error{Kind: Unreachable, Op: op, Err: errors.New("no directory URL configured")}
	}
	conn, err := c.dial(c.cfg.URL)
	if err != nil {
		return nil, classify(op, err)
	}
	if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		conn.Close()
		return nil, classify(op, err)
	}
	return conn, nil
}

// Provision creates the account and adds it to the groups its role maps
// to. Membership that already exists is not an error.
func (c *Client) Provision(a Account) (string, error) {
	const op = "provision"
	if strings.TrimSpace(a.Username) == "" {
		return "", &Error{Kind: Unknown, Op: op, Err: worker.ErrEmptyUsername}
	}

	conn, err := c.connect(op)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	dn := c.cfg.userDN(a.Username)
	req := ldap.NewAddRequest(dn, nil)
	req.Attribute("objectClass", []string{"inetOrgPerson"})
	req.Attribute("uid", []string{a.Username})
	req.Attribute("cn", []string{strings.TrimSpace(a.FirstName + " " + a.LastName)})
	req.Attribute("sn", []string{a.LastName})
	req.Attribute("givenName", []string{a.FirstName})
	req.Attribute("mail", []string{a.Email})
	req.Attribute("userPassword", []string{a.Password})
	if err := conn.Add(req); err != nil {
		return "", classify(op, err)
	}

	for _, group := range Groups(a.Role, a.Staff) {
		mod := ldap.NewModifyRequest(c.cfg.groupDN(group), nil)
		mod.Add("member", []string{dn})
		err := conn.Modify(mod)
		if ldap.IsErrorWithCode(err, ldap.LDAPResultAttributeOrValueExists) {
			continue
		}
		if err != nil {
			return dn, classify(op, err)
		}
	}

	c.log.Info("directory account provisioned",
		zap.String("dn", dn),
		zap.String("role", string(a.Role)),
	)
	return dn, nil
}

// Accounts lists every person entry under the users branch.
func (c *Client) Accounts() ([]Account, error) {
	const op = "list"
	conn, err := c.connect(op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := ldap.NewSearchRequest(
		c.cfg.usersDN(),
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		"(objectClass=inetOrgPerson)",
		[]string{"uid", "cn", "sn", "givenName", "mail"},
		nil,
	)
	result, err := conn.Search(req)
	if err != nil {
		return nil, classify(op, err)
	}

	accounts := make([]Account, 0, len(result.Entries))
	for _, e := range result.Entries {
		if e.DN == "" {
			continue
		}
		accounts = append(accounts, Account{
			DN:        e.DN,
			Username:  e.GetAttributeValue("uid"),
			Name:      e.GetAttributeValue("cn"),
			FirstName: e.GetAttributeValue("givenName"),
			LastName:  e.GetAttributeValue("sn"),
			Email:     e.GetAttributeValue("mail"),
		})
	}
	c.log.Debug("directory accounts listed", zap.Int("count", len(accounts)))
	return accounts, nil
}
