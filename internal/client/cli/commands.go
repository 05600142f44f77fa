package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/slwang/voiceledger/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email and password and creates a new account.
// The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, email, string(password)); err != nil {
		return err
	}

	printlnFn("Registered! Now log in.")
	return nil
}

// Login prompts for credentials, authenticates, and kicks off a full sync so
// expenses created before login (or on other devices) reconcile right away.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, email, string(password)); err != nil {
		return err
	}

	printlnFn("Logged in.")
	return a.Sync(ctx)
}

// Logout drops the session and sync bookkeeping. Local expenses stay.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out.")
	return nil
}

// Add interactively creates an expense. It works offline; upload happens in
// the background once a session exists.
func (a *App) Add(ctx context.Context) error {
	amountStr, err := getSimpleText(a.reader, "Amount", os.Stdout)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", amountStr, err)
	}

	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category", os.Stdout)
	if err != nil {
		return err
	}
	dateStr, err := getSimpleText(a.reader, "Date (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		return err
	}

	occurredAt := time.Now()
	if dateStr != "" {
		occurredAt, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("bad date %q: %w", dateStr, err)
		}
	}

	notes, err := getSimpleText(a.reader, "Notes (optional)", os.Stdout)
	if err != nil {
		return err
	}

	e, err := a.expenses.Add(ctx, amount, title, category, occurredAt, notes)
	if err != nil {
		return err
	}
	printlnFn("Added", e.ID)
	return nil
}

// List prints all local expenses, newest occurrence first.
func (a *App) List(ctx context.Context) error {
	all, err := a.expenses.List(ctx)
	if err != nil {
		return err
	}

	if len(all) == 0 {
		printlnFn("No expenses yet.")
		return nil
	}
	for _, e := range all {
		printlnFn(fmt.Sprintf("%s  %s  %-10s %-20s [%s]",
			e.ID, e.OccurredAt.Format("2006-01-02"), e.Amount.String(), e.Title, e.SyncStatus))
	}

	total, err := a.expenses.Count(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%d expense(s)", total))
	return nil
}

// Show prints one expense in full.
func (a *App) Show(ctx context.Context, id string) error {
	e, err := a.expenses.Get(ctx, id)
	if err != nil {
		return err
	}

	printlnFn("Title:   ", e.Title)
	printlnFn("Amount:  ", e.Amount.String())
	printlnFn("Category:", e.Category)
	printlnFn("Date:    ", e.OccurredAt.Format("2006-01-02"))
	if e.Notes != "" {
		printlnFn("Notes:   ", e.Notes)
	}
	printlnFn("Status:  ", string(e.SyncStatus))
	return nil
}

// Delete removes an expense locally and queues the remote delete.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.expenses.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

// Sync runs a full bidirectional pass immediately.
func (a *App) Sync(ctx context.Context) error {
	result, err := a.engine.FullSync(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Synced: %d uploaded, %d deleted, %d fetched (%d new, %d updated)",
		result.Push.Uploaded, result.Push.Deleted, result.Pull.Fetched,
		result.Pull.Created, result.Pull.Updated))
	return nil
}

// Voice captures an expense from a pre-recorded audio file.
func (a *App) Voice(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Path to audio file", os.Stdout)
	if err != nil {
		return err
	}
	a.recorder.path = path

	e, err := a.voice.CaptureExpense(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Captured: %s %s (%s)", e.Amount.String(), e.Title, e.Category))
	return nil
}
