/*
Package console is the line-oriented front end of the reservation engine.

PURPOSE:
  Reads one command per line, runs it against the engine with the
  console's own session, and writes the engine's result as text.

COMMANDS:
  create <username> <password> <initial amount>
  login <username> <password>
  search <origin city> <destination city> <direct> <day> <num itineraries>
  book <itinerary id>
  pay <reservation id>
  reservations
  cancel <reservation id>
  quit

  Arguments containing spaces ("Seattle WA") are double-quoted.
  <direct> is 1 for direct flights only, 0 to include one-stop itineraries.

RETRIES:
  Operations that fail with flight.ErrSerialization are retried with
  exponential backoff (see retry.go). The engine itself never retries.

SEE ALSO:
  - render.go: Output wording
  - flight/engine.go: The operations behind each command
*/
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/warp/flight-engine/flight"
	"github.com/warp/flight-engine/logger"
)

const DefaultPrompt = "> "

// Console owns exactly one session. Use one Console per client.
type Console struct {
	engine   *flight.Engine
	session  *flight.Session
	out      io.Writer
	log      logger.Logger
	prompt   string
	attempts int

	mu     sync.Mutex // held while a command runs
	closed bool
}

type Option func(*Console)

func WithPrompt(p string) Option { return func(c *Console) { c.prompt = p } }

func WithLogger(l logger.Logger) Option { return func(c *Console) { c.log = l } }

// WithRetryAttempts caps the attempts per command, the first included.
func WithRetryAttempts(n int) Option {
	return func(c *Console) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func New(engine *flight.Engine, out io.Writer, opts ...Option) *Console {
	c := &Console{
		engine:   engine,
		session:  flight.NewSession(),
		out:      out,
		log:      logger.Nop(),
		prompt:   DefaultPrompt,
		attempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the console's session, mostly for tests.
func (c *Console) Session() *flight.Session { return c.session }

// Shutdown waits for the command in flight, if any, to return. Later
// commands are refused as if quit had been typed.
func (c *Console) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Run processes lines from in until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, c.prompt)
		if !sc.Scan() {
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		out, quit := c.Execute(ctx, sc.Text())
		fmt.Fprint(c.out, out)
		if quit {
			return nil
		}
	}
}

// Execute runs one command line and returns its output. quit is true
// for the quit command.
func (c *Console) Execute(ctx context.Context, line string) (out string, quit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", true
	}

	args, err := tokenize(line)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err), false
	}
	if len(args) == 0 {
		return "", false
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "create":
		return c.create(ctx, args), false
	case "login":
		return c.login(ctx, args), false
	case "search":
		return c.search(ctx, args), false
	case "book":
		return c.book(ctx, args), false
	case "pay":
		return c.pay(ctx, args), false
	case "reservations":
		return c.reservations(ctx, args), false
	case "cancel":
		return c.cancel(ctx, args), false
	case "quit":
		return "Goodbye\n", true
	default:
		return fmt.Sprintf("Error: unrecognized command '%s'\n", cmd), false
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func (c *Console) create(ctx context.Context, args []string) string {
	if len(args) != 3 {
		return "Error: Please provide a username, password, and initial amount in the account\n"
	}
	amount, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return "Failed to create user\n"
	}
	res, err := retry(ctx, c.attempts, c.log, func() (flight.CreateCustomerResult, error) {
		return c.engine.CreateCustomer(ctx, args[0], args[1], amount)
	})
	return renderCreate(res, err)
}

func (c *Console) login(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return "Error: Please provide a username and password\n"
	}
	res, err := retry(ctx, c.attempts, c.log, func() (flight.LoginResult, error) {
		return c.engine.Login(ctx, c.session, args[0], args[1])
	})
	return renderLogin(res, err)
}

func (c *Console) search(ctx context.Context, args []string) string {
	if len(args) != 5 {
		return "Error: Please provide all search parameters <origin_city> <dest_city> <direct> <day> <num_itineraries>\n"
	}
	direct, err1 := strconv.Atoi(args[2])
	day, err2 := strconv.Atoi(args[3])
	limit, err3 := strconv.Atoi(args[4])
	if err1 != nil || err2 != nil || err3 != nil {
		return "Failed to search\n"
	}

	q := flight.SearchQuery{
		Origin:      args[0],
		Destination: args[1],
		DirectOnly:  direct == 1,
		DayOfMonth:  day,
		Limit:       limit,
	}
	res, err := retry(ctx, c.attempts, c.log, func() (flight.SearchResult, error) {
		return c.engine.Search(ctx, c.session, q)
	})
	return renderSearch(res, err)
}

func (c *Console) book(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Error: Please provide an itinerary_id\n"
	}
	ordinal, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Sprintf("No such itinerary %s\n", args[0])
	}
	res, err := retry(ctx, c.attempts, c.log, func() (flight.BookResult, error) {
		return c.engine.Book(ctx, c.session, ordinal)
	})
	return renderBook(ordinal, res, err)
}

func (c *Console) pay(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Error: Please provide a reservation_id\n"
	}
	rid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Sprintf("Failed to pay for reservation %s\n", args[0])
	}
	res, err := retry(ctx, c.attempts, c.log, func() (flight.PayResult, error) {
		return c.engine.Pay(ctx, c.session, rid)
	})
	return renderPay(rid, c.session.Username(), res, err)
}

func (c *Console) reservations(ctx context.Context, args []string) string {
	if len(args) != 0 {
		return "Error: Please don't provide anything besides the command\n"
	}
	res, err := retry(ctx, c.attempts, c.log, func() (flight.ReservationsResult, error) {
		return c.engine.Reservations(ctx, c.session)
	})
	return renderReservations(res, err)
}

func (c *Console) cancel(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Error: Please provide a reservation_id\n"
	}
	rid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Sprintf("Failed to cancel reservation %s\n", args[0])
	}
	res, err := retry(ctx, c.attempts, c.log, func() (flight.CancelResult, error) {
		return c.engine.Cancel(ctx, c.session, rid)
	})
	return renderCancel(rid, res, err)
}

// =============================================================================
// TOKENIZER
// =============================================================================

// tokenize splits on whitespace, keeping double-quoted runs together.
func tokenize(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				args = append(args, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if pending {
		args = append(args, cur.String())
	}
	return args, nil
}
