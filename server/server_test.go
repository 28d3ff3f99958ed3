package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dealops/dealflow/config"
	"github.com/dealops/dealflow/internal/common"
	"github.com/dealops/dealflow/internal/fanout"
)

func TestAuthRequired(t *testing.T) {
	_, ts := newTestServer(t)

	anon := &rst{t: t, base: ts.URL}
	require.Equal(t, 401, anon.do("GET", "/deals", nil, nil))
	require.Equal(t, 401, anon.do("POST", "/deal", shareDeal(10), nil))

	forged := &rst{t: t, base: ts.URL, token: "not-a-token"}
	require.Equal(t, 401, forged.do("GET", "/deals", nil, nil))
}

func TestSignUpRules(t *testing.T) {
	_, ts := newTestServer(t)
	c := &rst{t: t, base: ts.URL}

	// Admin accounts cannot be created through the public endpoint.
	code := c.do("POST", "/signUp", M{
		"name": "x", "email": "x@test.io", "type": "admin", "pass": defaultPass,
	}, nil)
	require.Equal(t, 403, code)

	// Unknown scope is rejected.
	code = c.do("POST", "/signUp", M{
		"name": "x", "email": "x@test.io", "type": "superuser", "pass": defaultPass,
	}, nil)
	require.Equal(t, 400, code)

	signUpAndIn(t, ts, "dupe@test.io", "requester")
	code = c.do("POST", "/signUp", M{
		"name": "dupe", "email": "dupe@test.io", "type": "responder", "pass": defaultPass,
	}, nil)
	require.Equal(t, 400, code)

	// The seeded admin can sign in like anyone else.
	admin := signInAs(t, ts, adminEmail)
	require.NotEmpty(t, admin.token)

	// Wrong password is a 401, not a 400.
	bad := &rst{t: t, base: ts.URL}
	code = bad.do("POST", "/signIn", M{"email": "dupe@test.io", "pass": "nope"}, nil)
	require.Equal(t, 401, code)
}

func TestDealLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	req := signUpAndIn(t, ts, "brand@test.io", "requester")
	rsp := signUpAndIn(t, ts, "shop@test.io", "responder")
	rsp2 := signUpAndIn(t, ts, "shop2@test.io", "responder")

	var deal common.Deal
	require.Equal(t, 200, req.do("POST", "/deal", shareDeal(15), &deal))
	require.NotEmpty(t, deal.Id)
	require.Equal(t, common.DealOpen, deal.Status)

	// Responders cannot create deals.
	require.Equal(t, 403, rsp.do("POST", "/deal", shareDeal(15), nil))

	// The open listing hides the requester from responders.
	var listing []*common.Deal
	require.Equal(t, 200, rsp.do("GET", "/deals", nil, &listing))
	require.Len(t, listing, 1)
	require.Equal(t, common.RedactedOwner, listing[0].RequesterId)

	var bid common.Bid
	require.Equal(t, 200, rsp.do("POST", "/deal/"+deal.Id+"/bid", shareBid(10), &bid))
	require.Equal(t, common.BidPending, bid.Status)

	// Requesters cannot bid, and a second live bid on the same deal conflicts.
	require.Equal(t, 403, req.do("POST", "/deal/"+deal.Id+"/bid", shareBid(10), nil))
	require.Equal(t, 409, rsp.do("POST", "/deal/"+deal.Id+"/bid", shareBid(12), nil))

	var rival common.Bid
	require.Equal(t, 200, rsp2.do("POST", "/deal/"+deal.Id+"/bid", shareBid(11), &rival))

	// First bid moved the deal into negotiation.
	var seen common.Deal
	require.Equal(t, 200, req.do("GET", "/deal/"+deal.Id, nil, &seen))
	require.Equal(t, common.DealInNegotiation, seen.Status)

	// Requester counters, bid flips to countered, history records both sides.
	require.Equal(t, 200, req.do("POST", "/bid/"+bid.Id+"/counter", M{
		"offer": shareBid(13)["offer"], "message": "meet in the middle?",
	}, nil))
	require.Equal(t, 200, rsp.do("POST", "/bid/"+bid.Id+"/counter", M{
		"offer": shareBid(12)["offer"],
	}, nil))

	var rows []*common.Negotiation
	require.Equal(t, 200, rsp.do("GET", "/bid/"+bid.Id+"/negotiations", nil, &rows))
	require.Len(t, rows, 2)
	require.True(t, rows[0].FromRequester)
	require.False(t, rows[1].FromRequester)

	// The other responder cannot read a rival's paper trail.
	require.Equal(t, 403, rsp2.do("GET", "/bid/"+bid.Id+"/negotiations", nil, nil))

	var cn common.Connection
	require.Equal(t, 200, req.do("PUT", "/bid/"+bid.Id+"/accept", nil, &cn))
	require.Equal(t, deal.Id, cn.DealId)
	require.Equal(t, bid.ResponderId, cn.ResponderId)

	// Accepting settles everything atomically: the rival is rejected, the
	// deal is terminal, and every late mutation maps to the right status.
	var after common.Bid
	require.Equal(t, 200, rsp2.do("GET", "/bid/"+rival.Id, nil, &after))
	require.Equal(t, common.BidRejected, after.Status)

	require.Equal(t, 409, req.do("PUT", "/bid/"+rival.Id+"/accept", nil, nil))
	require.Equal(t, 400, rsp.do("PUT", "/bid/"+bid.Id+"/withdraw", nil, nil))
	require.Equal(t, 400, req.do("POST", "/bid/"+bid.Id+"/counter", M{
		"offer": shareBid(14)["offer"],
	}, nil))
	require.Equal(t, 409, req.do("PUT", "/deal/"+deal.Id+"/cancel", nil, nil))

	// Both parties can read the connection; strangers cannot.
	require.Equal(t, 200, req.do("GET", "/connection/"+cn.Id, nil, nil))
	require.Equal(t, 200, rsp.do("GET", "/connection/"+cn.Id, nil, nil))
	require.Equal(t, 403, rsp2.do("GET", "/connection/"+cn.Id, nil, nil))
}

func TestForeignAccess(t *testing.T) {
	_, ts := newTestServer(t)

	req := signUpAndIn(t, ts, "brand@test.io", "requester")
	other := signUpAndIn(t, ts, "other@test.io", "requester")
	admin := signInAs(t, ts, adminEmail)

	var deal common.Deal
	require.Equal(t, 200, req.do("POST", "/deal", shareDeal(20), &deal))

	// A rival requester cannot even learn the deal exists on the read path,
	// and the mutation path refuses them outright. The browse listing is
	// equally off limits to them.
	require.Equal(t, 404, other.do("GET", "/deal/"+deal.Id, nil, nil))
	require.Equal(t, 403, other.do("PUT", "/deal/"+deal.Id+"/cancel", nil, nil))
	require.Equal(t, 403, other.do("GET", "/deals", nil, nil))

	require.Equal(t, 404, req.do("GET", "/deal/999", nil, nil))

	// Closing is an admin action.
	require.Equal(t, 403, req.do("PUT", "/deal/"+deal.Id+"/close", nil, nil))
	require.Equal(t, 200, admin.do("PUT", "/deal/"+deal.Id+"/close", nil, nil))

	var seen common.Deal
	require.Equal(t, 200, req.do("GET", "/deal/"+deal.Id, nil, &seen))
	require.Equal(t, common.DealClosed, seen.Status)
}

func TestSignUpCannotSelfSubscribe(t *testing.T) {
	srv, ts := newTestServerCfg(t, func(cfg *config.Config) {
		cfg.RequireSubscription = true
	})

	req := signUpAndIn(t, ts, "brand@test.io", "requester")
	var deal common.Deal
	require.Equal(t, 200, req.do("POST", "/deal", shareDeal(15), &deal))

	// A responder claiming the billing flag in the signup payload must not
	// get past the bid gate; the flag belongs to the billing collaborator.
	c := &rst{t: t, base: ts.URL}
	code := c.do("POST", "/signUp", M{
		"name": "shop", "email": "shop@test.io", "type": "responder",
		"pass": defaultPass, "subscribed": true,
	}, nil)
	require.Equal(t, 200, code)
	rsp := signInAs(t, ts, "shop@test.io")

	require.Equal(t, 403, rsp.do("POST", "/deal/"+deal.Id+"/bid", shareBid(10), nil))

	// Once the billing side flips the stored flag the same bid goes through.
	var stored struct {
		Id string `json:"id"`
	}
	code = rsp.do("POST", "/signIn", M{"email": "shop@test.io", "pass": defaultPass}, &stored)
	require.Equal(t, 200, code)
	u := srv.auth.GetUser(stored.Id)
	require.NotNil(t, u)
	require.False(t, u.Subscribed)
	u.Subscribed = true
	require.NoError(t, srv.db.Update(func(tx *bolt.Tx) error {
		return u.StoreTx(srv.auth, tx)
	}))
	require.Equal(t, 200, rsp.do("POST", "/deal/"+deal.Id+"/bid", shareBid(10), nil))
}

func wsURL(base, token string) string {
	return strings.Replace(base, "http", "ws", 1) + "/api/v1/feed?token=" + token
}

func TestFeed(t *testing.T) {
	_, ts := newTestServer(t)

	req := signUpAndIn(t, ts, "brand@test.io", "requester")
	rsp := signUpAndIn(t, ts, "shop@test.io", "responder")

	// The handshake is rejected before the upgrade on a bad token.
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "garbage"), nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, req.token), nil)
	require.NoError(t, err)
	defer conn.Close()

	var deal common.Deal
	require.Equal(t, 200, req.do("POST", "/deal", shareDeal(15), &deal))
	require.Equal(t, 200, rsp.do("POST", "/deal/"+deal.Id+"/bid", shareBid(10), nil))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev fanout.Event
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "new_bid", ev.Event)
	require.Contains(t, string(ev.Data), deal.Id)
}

func TestMessageRelay(t *testing.T) {
	_, ts := newTestServer(t)

	req := signUpAndIn(t, ts, "brand@test.io", "requester")
	rsp := signUpAndIn(t, ts, "shop@test.io", "responder")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, rsp.token), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Re-sign-in only to learn the recipient's id.
	var to struct {
		Id string `json:"id"`
	}
	code := req.do("POST", "/signIn", M{"email": "shop@test.io", "pass": defaultPass}, &to)
	require.Equal(t, 200, code)

	require.Equal(t, 200, req.do("POST", "/message", M{
		"to": to.Id, "message": "can you do cases of 24?",
	}, nil))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev fanout.Event
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "new_message", ev.Event)
	require.Contains(t, string(ev.Data), "cases of 24")
}
