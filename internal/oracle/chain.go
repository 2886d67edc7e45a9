package oracle

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

	"bond-lifecycle-demo/internal/domain"
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

// ChainFeedOptions parameterise the on-chain price feed.
type ChainFeedOptions struct {
	RPCURL            string
	AggregatorAddress string
	Decimals          int32
	Currency          string
	ChainLabel        string
	Timeout           time.Duration
}

// ChainFeed reads a Chainlink-style price aggregator over Ethereum RPC.
type ChainFeed struct {
	opts      ChainFeedOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewChainFeed builds an on-chain price feed.
func NewChainFeed(opts ChainFeedOptions, logger zerolog.Logger) *ChainFeed {
	return &ChainFeed{opts: opts, logger: logger.With().Str("component", "oracle_chain").Logger()}
}

// FetchPrice reads latestRoundData from the configured aggregator.
func (f *ChainFeed) FetchPrice(ctx context.Context) (domain.PriceQuote, error) {
	if f.opts.RPCURL == "" {
		return domain.PriceQuote{}, errors.New("ethereum rpc url not configured")
	}
	if f.opts.AggregatorAddress == "" {
		return domain.PriceQuote{}, errors.New("aggregator contract address not configured")
	}

	timeout := f.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := f.getClient(ctx)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	addr := common.HexToAddress(f.opts.AggregatorAddress)

	payload, err := aggregatorABI.Pack("latestRoundData")
	if err != nil {
		return domain.PriceQuote{}, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	outputs, err := aggregatorABI.Unpack("latestRoundData", res)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	if len(outputs) != 5 {
		return domain.PriceQuote{}, errors.New("unexpected latestRoundData response")
	}

	answer, ok := outputs[1].(*big.Int)
	if !ok {
		return domain.PriceQuote{}, errors.New("failed to decode aggregator answer")
	}
	if answer.Sign() <= 0 {
		return domain.PriceQuote{}, errors.New("aggregator returned non-positive answer")
	}

	updatedAt, ok := outputs[3].(*big.Int)
	if !ok {
		return domain.PriceQuote{}, errors.New("failed to decode aggregator timestamp")
	}

	decimals := f.opts.Decimals
	if decimals <= 0 {
		decimals = 8
	}

	currency := f.opts.Currency
	if currency == "" {
		currency = "USD"
	}

	chainLabel := f.opts.ChainLabel
	if chainLabel == "" {
		chainLabel = "Ethereum Mainnet"
	}

	quote := domain.PriceQuote{
		Price: domain.Money{
			Amount:   decimal.NewFromBigInt(answer, -decimals),
			Currency: currency,
		},
		Source:    "Chainlink Aggregator",
		Chain:     chainLabel,
		Timestamp: time.Unix(updatedAt.Int64(), 0).UTC(),
	}
	return quote, nil
}

func (f *ChainFeed) getClient(ctx context.Context) (*ethclient.Client, error) {
	f.clientMux.Lock()
	defer f.clientMux.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	client, err := ethclient.DialContext(ctx, f.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

var _ PriceFetcher = (*ChainFeed)(nil)
