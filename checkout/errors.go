package checkout

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrUnknownProduct = errors.New("unknown product")
	ErrTotalMismatch  = errors.New("order total does not match current prices")
)

var printer = message.NewPrinter(language.English)

// RetryableError means a stock read failed; nothing was changed and the
// shopper can try again.
type RetryableError struct {
	ProductID uint
	Err       error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("could not check stock for product %d, please retry: %v", e.ProductID, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

type StockIssue struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (i StockIssue) String() string {
	if i.Available <= 0 {
		return printer.Sprintf("%s is out of stock", i.Name)
	}
	return printer.Sprintf("only %d of %s left (you asked for %d)", i.Available, i.Name, i.Requested)
}

// StockError lists every line that asked for more than is in stock.
type StockError struct {
	Issues []StockIssue
}

func (e *StockError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "not enough stock: " + strings.Join(parts, "; ")
}

// ValidationError names the checkout fields that are missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}
