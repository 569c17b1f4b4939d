/*
Package authsdk is the client SDK and wire contract of the carservice
authentication API.

# Overview

SDKClient covers the public endpoints (register, login, refresh, health)
and opens a Session on login:

	client := authsdk.NewSDKClient("https://cars.example.com")

	session, err := client.Login(ctx, "driver@example.com", "secret")
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

A Session keeps the token pair and refreshes the access token shortly
before it expires. Refresh tokens are not rotated, so the refresh token of
a session never changes. Logout revokes both tokens server side:

	err = session.Logout(ctx)

# Responses

Every successful response is wrapped in an envelope

	{"time": "...", "httpStatus": "OK", "isSuccess": true, "response": {...}}

and every failure in

	{"time": "...", "httpStatus": "UNAUTHORIZED", "header": "AUTH ERROR", "message": "...", "isSuccess": false}

The SDK unwraps success envelopes and turns failures into *APIError values,
which can be compared against the predefined errors with errors.Is.

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
