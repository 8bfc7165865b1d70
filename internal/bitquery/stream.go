package bitquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"memecoin-lab/internal/domain"
	"memecoin-lab/internal/log"
	"memecoin-lab/internal/observability"
)

// graphql-transport-ws message types.
const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
	msgPing           = "ping"
	msgPong           = "pong"
)

// StreamConfig configures stream behavior.
type StreamConfig struct {
	// Endpoint is the WebSocket URL. Defaults to the EAP endpoint.
	Endpoint string
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending protocol ping messages.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Endpoint:          "wss://streaming.bitquery.io/eap",
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

const pairTradesSubscription = `
subscription ($token: String!, $side_token: String!, $pair_address: String!) {
  Solana {
    DEXTradeByTokens(
      where: { Trade: { Currency: { MintAddress: { is: $token }}, Side: { Currency: { MintAddress: { is: $side_token }}}, Market: { MarketAddress: { is: $pair_address }}}, Transaction: { Result: { Success: true }}}
    ) {
      Block {
        Time
      }
      Trade {
        Currency {
          Name
          Symbol
        }
        Amount
        PriceAgainstSideCurrency: Price
        PriceInUSD
        Side {
          Currency {
            Symbol
          }
          Amount
          Type
        }
      }
      Transaction {
        Maker: Signer
        Signature
      }
    }
  }
}`

// TradeStream delivers live trades for one token pair over a
// graphql-transport-ws subscription.
type TradeStream struct {
	client *Client
	config StreamConfig

	mint      string
	pair      string
	sideToken string

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	trades chan domain.PairTrade
	done   chan struct{}
	wg     sync.WaitGroup

	logger zerolog.Logger
}

// NewTradeStream opens a live trade subscription for a pair. The returned
// stream starts delivering trades on Trades() until Close is called.
func NewTradeStream(ctx context.Context, client *Client, mint, pair, sideToken string, config *StreamConfig) (*TradeStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}
	if sideToken == "" {
		sideToken = domain.WrappedSOLMint
	}

	s := &TradeStream{
		client:    client,
		config:    cfg,
		mint:      mint,
		pair:      pair,
		sideToken: sideToken,
		trades:    make(chan domain.PairTrade, 1024),
		done:      make(chan struct{}),
		logger:    log.With("bitquery-stream"),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()

	return s, nil
}

// Trades returns the channel of live trades. The channel is closed when
// the stream is closed.
func (s *TradeStream) Trades() <-chan domain.PairTrade {
	return s.trades
}

// connect dials, performs the connection_init handshake and subscribes.
func (s *TradeStream) connect(ctx context.Context) error {
	token, err := s.client.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("access token: %w", err)
	}

	endpoint := s.config.Endpoint + "?token=" + url.QueryEscape(token)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{"graphql-transport-ws"},
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(wsMessage{Type: msgConnectionInit}); err != nil {
		conn.Close()
		return fmt.Errorf("write connection_init: %w", err)
	}

	// Wait for connection_ack before subscribing
	conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			conn.Close()
			return fmt.Errorf("read connection_ack: %w", err)
		}
		if msg.Type == msgConnectionAck {
			break
		}
		if msg.Type == msgError {
			conn.Close()
			return fmt.Errorf("connection rejected: %s", string(msg.Payload))
		}
	}

	payload, err := json.Marshal(gqlRequest{
		Query: pairTradesSubscription,
		Variables: map[string]interface{}{
			"token":        s.mint,
			"side_token":   s.sideToken,
			"pair_address": s.pair,
		},
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("marshal subscribe payload: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(wsMessage{ID: "1", Type: msgSubscribe, Payload: payload}); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	return nil
}

// Close closes the stream and its trade channel.
func (s *TradeStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.trades)
	return nil
}

// readLoop reads subscription messages and reconnects on failure.
func (s *TradeStream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(&reconnectDelay) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if s.closed.Load() {
				return
			}

			s.logger.Warn().Err(err).Msg("stream read failed, reconnecting")
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()
			continue
		}

		// Reset delay on successful read
		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(msg)
	}
}

// reconnect waits with backoff and re-establishes the subscription.
// Returns false when the stream is closed.
func (s *TradeStream) reconnect(delay *time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(*delay):
	}

	*delay = *delay * 2
	if *delay > s.config.MaxReconnectDelay {
		*delay = s.config.MaxReconnectDelay
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := s.connect(ctx)
	cancel()

	if err != nil {
		s.logger.Warn().Err(err).Msg("stream reconnect failed")
		return !s.closed.Load()
	}

	observability.DefaultMetrics.StreamReconnects.Inc()
	s.logger.Info().Str("pair", s.pair).Msg("stream reconnected")
	return true
}

// handleMessage processes one protocol message.
func (s *TradeStream) handleMessage(msg wsMessage) {
	switch msg.Type {
	case msgNext:
		s.handleNext(msg.Payload)
	case msgPing:
		s.connMu.Lock()
		if s.conn != nil {
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			s.conn.WriteJSON(wsMessage{Type: msgPong})
		}
		s.connMu.Unlock()
	case msgError:
		s.logger.Error().Str("payload", string(msg.Payload)).Msg("subscription error")
	case msgComplete:
		s.logger.Info().Str("pair", s.pair).Msg("subscription completed by server")
	}
}

// handleNext decodes a data frame and dispatches its trades.
func (s *TradeStream) handleNext(payload json.RawMessage) {
	var frame struct {
		Data struct {
			Solana struct {
				DEXTradeByTokens []struct {
					Block struct {
						Time string `json:"Time"`
					} `json:"Block"`
					Trade struct {
						Currency struct {
							Name   string `json:"Name"`
							Symbol string `json:"Symbol"`
						} `json:"Currency"`
						Amount                   number `json:"Amount"`
						PriceAgainstSideCurrency number `json:"PriceAgainstSideCurrency"`
						PriceInUSD               number `json:"PriceInUSD"`
						Side                     struct {
							Currency struct {
								Symbol string `json:"Symbol"`
							} `json:"Currency"`
							Amount number `json:"Amount"`
							Type   string `json:"Type"`
						} `json:"Side"`
					} `json:"Trade"`
					Transaction struct {
						Maker     string `json:"Maker"`
						Signature string `json:"Signature"`
					} `json:"Transaction"`
				} `json:"DEXTradeByTokens"`
			} `json:"Solana"`
		} `json:"data"`
	}

	if err := json.Unmarshal(payload, &frame); err != nil {
		s.logger.Warn().Err(err).Msg("decode stream frame")
		return
	}

	for _, t := range frame.Data.Solana.DEXTradeByTokens {
		trade := domain.PairTrade{
			BlockTime:        parseBlockTime(t.Block.Time),
			CurrencyName:     t.Trade.Currency.Name,
			CurrencySymbol:   t.Trade.Currency.Symbol,
			Amount:           float64(t.Trade.Amount),
			PriceAgainstSide: float64(t.Trade.PriceAgainstSideCurrency),
			PriceUSD:         float64(t.Trade.PriceInUSD),
			SideSymbol:       t.Trade.Side.Currency.Symbol,
			SideAmount:       float64(t.Trade.Side.Amount),
			SideType:         t.Trade.Side.Type,
			Maker:            t.Transaction.Maker,
			Signature:        t.Transaction.Signature,
		}

		observability.DefaultMetrics.StreamMessages.Inc()

		// Block until we can send, never drop trades
		select {
		case s.trades <- trade:
		case <-s.done:
			return
		}
	}
}

// pingLoop sends periodic protocol pings to keep the connection alive.
func (s *TradeStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteJSON(wsMessage{Type: msgPing}); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			s.connMu.Unlock()
		}
	}
}

// wsMessage is a graphql-transport-ws protocol frame.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
