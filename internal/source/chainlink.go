package source

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"goldwatcher/internal/convert"
	"goldwatcher/internal/quote"
)

const aggregatorABIJSON = `[{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}]`

var aggregatorABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		panic("failed to parse aggregator ABI: " + err.Error())
	}
	aggregatorABI = parsed
}

// ChainlinkOptions parameterise the on-chain XAU/USD feed adapter.
type ChainlinkOptions struct {
	RPCURL      string
	FeedAddress string
	Timeout     time.Duration
}

// Chainlink reads the XAU/USD price from an on-chain Chainlink aggregator
// and converts USD/oz to INR/gram via the forex source. The feed answer
// carries 8 decimals.
type Chainlink struct {
	opts      ChainlinkOptions
	forex     *Forex
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewChainlink builds the on-chain feed adapter.
func NewChainlink(opts ChainlinkOptions, forex *Forex, logger zerolog.Logger) *Chainlink {
	return &Chainlink{
		opts:   opts,
		forex:  forex,
		logger: logger.With().Str("component", "chainlink_adapter").Logger(),
	}
}

// Name implements Adapter.
func (c *Chainlink) Name() string { return "chainlink-xau" }

// Fetch implements Adapter.
func (c *Chainlink) Fetch(ctx context.Context) (quote.Quotation, error) {
	if c.opts.RPCURL == "" {
		return quote.Quotation{}, failf(c.Name(), "ethereum rpc url not configured", nil)
	}
	if c.opts.FeedAddress == "" {
		return quote.Quotation{}, failf(c.Name(), "feed address not configured", nil)
	}

	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return quote.Quotation{}, failf(c.Name(), "dial rpc", err)
	}

	addr := common.HexToAddress(c.opts.FeedAddress)
	payload, err := aggregatorABI.Pack("latestRoundData")
	if err != nil {
		return quote.Quotation{}, failf(c.Name(), "pack call", err)
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return quote.Quotation{}, failf(c.Name(), "call feed", err)
	}

	outputs, err := aggregatorABI.Unpack("latestRoundData", res)
	if err != nil {
		return quote.Quotation{}, failf(c.Name(), "unpack response", err)
	}
	if len(outputs) != 5 {
		return quote.Quotation{}, failf(c.Name(), "unexpected latestRoundData response", nil)
	}

	answer, ok := outputs[1].(*big.Int)
	if !ok {
		return quote.Quotation{}, failf(c.Name(), "decode answer", errors.New("answer is not an integer"))
	}
	if answer.Sign() <= 0 {
		return quote.Quotation{}, failf(c.Name(), "non-positive feed answer", nil)
	}

	perOunceUSD := decimal.NewFromBigInt(answer, -8)
	usdToInr, degraded := c.forex.USDToINR(ctx)

	perGramUSD := convert.PerOunceToPerGram(perOunceUSD)
	perGramINR := convert.ApplyExchangeRate(perGramUSD, usdToInr)

	c.logger.Debug().
		Str("usd_per_oz", perOunceUSD.String()).
		Bool("forex_degraded", degraded).
		Msg("feed answer fetched")

	return quote.Quotation{
		Kind:         quote.KindInternational,
		PricePerGram: perGramINR,
		PriceUSD:     perGramUSD,
		Source:       c.Name(),
		Degraded:     degraded,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

func (c *Chainlink) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.clientMux.Lock()
	defer c.clientMux.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := ethclient.DialContext(ctx, c.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

var _ Adapter = (*Chainlink)(nil)
