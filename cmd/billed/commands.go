package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"billed/internal/app"
	"billed/internal/backend"
	"billed/internal/core"
	"billed/internal/dom"
	"billed/internal/views"
)

var (
	errNotLoggedIn = errors.New("not logged in, run `billed login` first")
	errWrongRole   = errors.New("command not available for this account type")
)

type env struct {
	app     *app.App
	backend *backend.Result
	out     io.Writer
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"login", "log in as an employee (or -admin)", runLogin},
	{"logout", "forget the current session", runLogout},
	{"bills", "list bills for the current session", runBills},
	{"view", "show the receipt of a bill (-id)", runView},
	{"new", "upload a receipt and submit a new bill", runNew},
	{"review", "accept or refuse a pending bill (admin)", runReview},
	{"seed-user", "create a local account", runSeedUser},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.out)
	return fs
}

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "login")
	admin := fs.Bool("admin", false, "log in through the administration form")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := e.app.Show(ctx, views.Login); err != nil {
		return err
	}
	prefix := "employee"
	if *admin {
		prefix = "admin"
	}
	doc := e.app.Document()
	if err := doc.SetValue(prefix+"-email-input", *email); err != nil {
		return err
	}
	if err := doc.SetValue(prefix+"-password-input", *password); err != nil {
		return err
	}
	if err := doc.Dispatch(ctx, dom.TestIDSelector("form-"+prefix), dom.Submit); err != nil {
		return err
	}
	if e.app.Current() == views.Login {
		return fmt.Errorf("login failed: %s", doc.Text("login-error"))
	}

	fmt.Fprintf(e.out, "Connecté en tant que %s\n\n", *email)
	return printPage(e)
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Déconnecté")
	return nil
}

func runBills(ctx context.Context, e *env, args []string) error {
	if err := newFlagSet(e, "bills").Parse(args); err != nil {
		return err
	}
	if err := start(ctx, e); err != nil {
		return err
	}
	return printPage(e)
}

func runView(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "view")
	id := fs.String("id", "", "bill id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := startOn(ctx, e, views.Bills); err != nil {
		return err
	}

	doc := e.app.Document()
	sel := fmt.Sprintf(`[data-bill-id=%q] %s`, *id, dom.TestIDSelector("icon-eye"))
	if err := doc.Dispatch(ctx, sel, dom.Click); err != nil {
		return fmt.Errorf("bill %s: %w", *id, err)
	}
	src, ok := doc.Find("#modaleFile .modal-body img").Attr("src")
	if !ok {
		return fmt.Errorf("bill %s has no receipt", *id)
	}
	fmt.Fprintln(e.out, src)
	return nil
}

func runNew(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "new")
	file := fs.String("file", "", "receipt image (.jpg, .jpeg or .png)")
	expenseType := fs.String("type", core.ExpenseTypes[0], "expense type")
	name := fs.String("name", "", "expense name")
	date := fs.String("date", "", "expense date (YYYY-MM-DD)")
	amount := fs.String("amount", "", "amount TTC in euros")
	vat := fs.String("vat", "", "VAT amount")
	pct := fs.Int("pct", 20, "VAT percentage")
	commentary := fs.String("commentary", "", "free text commentary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("-file is required")
	}
	content, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read receipt: %w", err)
	}

	if err := startOn(ctx, e, views.Bills); err != nil {
		return err
	}
	doc := e.app.Document()
	if err := doc.Dispatch(ctx, dom.TestIDSelector("btn-new-bill"), dom.Click); err != nil {
		return err
	}

	picked := dom.File{
		Name:    filepath.Base(*file),
		Type:    mime.TypeByExtension(filepath.Ext(*file)),
		Content: content,
	}
	if err := doc.SetFiles("file", picked); err != nil {
		return err
	}
	if err := doc.Dispatch(ctx, dom.TestIDSelector("file"), dom.Change); err != nil {
		return err
	}

	fields := map[string]string{
		"expense-type": *expenseType,
		"expense-name": *name,
		"datepicker":   *date,
		"amount":       *amount,
		"vat":          *vat,
		"pct":          strconv.Itoa(*pct),
		"commentary":   *commentary,
	}
	for id, v := range fields {
		if err := doc.SetValue(id, v); err != nil {
			return err
		}
	}
	if err := doc.Dispatch(ctx, dom.TestIDSelector("form-new-bill"), dom.Submit); err != nil {
		return err
	}

	_, _, id := e.app.NewBill().Receipt()
	fmt.Fprintf(e.out, "Note de frais %s envoyée\n\n", id)
	return printPage(e)
}

func runReview(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "review")
	id := fs.String("id", "", "bill id")
	status := fs.String("status", "", "accepted or refused")
	comment := fs.String("comment", "", "comment shown to the employee")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var button string
	switch core.Status(*status) {
	case core.StatusAccepted:
		button = "btn-accept-bill-" + *id
	case core.StatusRefused:
		button = "btn-refuse-bill-" + *id
	default:
		return fmt.Errorf("invalid status %q: must be accepted or refused", *status)
	}

	if err := startOn(ctx, e, views.Dashboard); err != nil {
		return err
	}
	doc := e.app.Document()
	if !doc.Exists(button) {
		return fmt.Errorf("bill %s is not pending", *id)
	}
	if err := doc.SetValue("commentary-admin-"+*id, *comment); err != nil {
		return err
	}
	if err := doc.Dispatch(ctx, dom.TestIDSelector(button), dom.Click); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Note de frais %s: %s\n\n", *id, core.Status(*status).Label())
	return printPage(e)
}

func runSeedUser(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "seed-user")
	email := fs.String("email", "", "account email")
	userType := fs.String("type", string(core.Employee), "Employee or Admin")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if e.backend.Users == nil {
		return errors.New("accounts are managed by the remote API")
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}
	if err := e.backend.Users.AddUser(ctx, *email, core.UserType(*userType), *password); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Compte %s (%s) créé\n", *email, *userType)
	return nil
}

// start shows the landing page of the persisted session.
func start(ctx context.Context, e *env) error {
	if err := e.app.Start(ctx); err != nil {
		return err
	}
	if e.app.Current() == views.Login {
		return errNotLoggedIn
	}
	return nil
}

// startOn is start for commands that only make sense on one landing page.
func startOn(ctx context.Context, e *env, page views.Page) error {
	if err := start(ctx, e); err != nil {
		return err
	}
	if e.app.Current() != page {
		return errWrongRole
	}
	return pageError(e)
}
