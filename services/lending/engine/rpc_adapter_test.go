package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"nhbrepay/crypto"
	sdklending "nhbrepay/sdk/lending"
	"nhbrepay/services/lending/engine/rpcclient"
)

func testAddress(b byte) string {
	return crypto.NewAddress(crypto.NHBPrefix, bytes.Repeat([]byte{b}, crypto.AddressLength)).String()
}

func respond(payload string) func(context.Context, string, any, any) error {
	return func(_ context.Context, _ string, _ any, result any) error {
		return json.Unmarshal([]byte(payload), result)
	}
}

func TestGetReservePassesAddress(t *testing.T) {
	var gotMethod string
	var gotParams any
	caller := &fakeCaller{callFn: func(ctx context.Context, method string, params any, result any) error {
		gotMethod, gotParams = method, params
		return respond(`{"address":"x"}`)(ctx, method, params, result)
	}}
	adapter := NewRPCAdapter(caller)

	raw, err := adapter.GetReserve(context.Background(), " "+testAddress(1)+" ")
	if err != nil {
		t.Fatalf("get reserve: %v", err)
	}
	if string(raw) != `{"address":"x"}` {
		t.Fatalf("unexpected payload %s", raw)
	}
	if gotMethod != methodGetReserve {
		t.Fatalf("unexpected method %s", gotMethod)
	}
	if params, ok := gotParams.([]string); !ok || len(params) != 1 || params[0] != testAddress(1) {
		t.Fatalf("unexpected params %#v", gotParams)
	}
}

func TestGetAccountNullIsNotFound(t *testing.T) {
	adapter := NewRPCAdapter(&fakeCaller{callFn: respond(`null`)})
	if _, err := adapter.GetObligation(context.Background(), testAddress(2)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAccountRejectsBadAddress(t *testing.T) {
	called := false
	adapter := NewRPCAdapter(&fakeCaller{callFn: func(context.Context, string, any, any) error {
		called = true
		return nil
	}})
	if _, err := adapter.GetMint(context.Background(), "not-an-address"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	if called {
		t.Fatal("rpc must not be called for invalid input")
	}
}

func TestListSkipsNullEntries(t *testing.T) {
	adapter := NewRPCAdapter(&fakeCaller{callFn: respond(`[{"address":"a"},null,{"address":"b"}]`)})
	list, err := adapter.ListReserves(context.Background(), testAddress(3))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected two entries, got %d", len(list))
	}
}

func TestRepayForwardsSignedMessage(t *testing.T) {
	msg, err := sdklending.NewMsgRepay(testAddress(9), sdklending.RepayAccounts{
		Source: "s", Obligation: "o", ObligationAccount: "oa", Reserve: "r", CollateralReserve: "c",
	}, "10")
	if err != nil {
		t.Fatalf("msg: %v", err)
	}
	signed := &sdklending.SignedMsgRepay{Msg: msg, Signature: "0x01"}
	var forwarded any
	adapter := NewRPCAdapter(&fakeCaller{callFn: func(ctx context.Context, method string, params any, result any) error {
		if method != methodRepay {
			return fmt.Errorf("unexpected method %s", method)
		}
		forwarded = params
		return respond(`{"txHash":"0xfeed"}`)(ctx, method, params, result)
	}})

	result, err := adapter.Repay(context.Background(), signed)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if result.TxHash != "0xfeed" || result.RequestID != msg.RequestID {
		t.Fatalf("unexpected result %+v", result)
	}
	if params, ok := forwarded.([]any); !ok || len(params) != 1 || params[0] != signed {
		t.Fatalf("unexpected params %#v", forwarded)
	}
}

func TestRepayValidatesBeforeCalling(t *testing.T) {
	adapter := NewRPCAdapter(&fakeCaller{callFn: func(context.Context, string, any, any) error {
		t.Fatal("rpc must not be called")
		return nil
	}})
	if _, err := adapter.Repay(context.Background(), nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	bad := &sdklending.SignedMsgRepay{Msg: &sdklending.MsgRepay{Payer: testAddress(9), Amount: "0"}}
	if _, err := adapter.Repay(context.Background(), bad); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTranslateRPCError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"http not found", &rpcclient.HTTPError{StatusCode: http.StatusNotFound, Status: "404 Not Found"}, ErrNotFound},
		{"http forbidden", &rpcclient.HTTPError{StatusCode: http.StatusForbidden, Status: "403 Forbidden"}, ErrUnauthorized},
		{"http unavailable", &rpcclient.HTTPError{StatusCode: http.StatusServiceUnavailable, Status: "503"}, ErrUnavailable},
		{"http other", &rpcclient.HTTPError{StatusCode: http.StatusTeapot, Status: "418"}, ErrInternal},
		{"paused", &rpcclient.Error{Code: -32000, Message: "lending module paused"}, ErrPaused},
		{"insufficient", &rpcclient.Error{Code: -32000, Message: "insufficient balance in source account"}, ErrInsufficientCollateral},
		{"amount", &rpcclient.Error{Code: -32602, Message: "invalid amount"}, ErrInvalidAmount},
		{"signature", &rpcclient.Error{Code: -32001, Message: "bad signature"}, ErrUnauthorized},
		{"missing", &rpcclient.Error{Code: -32004, Message: "obligation not found"}, ErrNotFound},
		{"other", &rpcclient.Error{Code: -32603, Message: "boom"}, ErrInternal},
		{"transport", errors.New("dial tcp: refused"), ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateRPCError(tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
	if translateRPCError(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	if got := translateRPCError(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Fatalf("context errors pass through, got %v", got)
	}
}
