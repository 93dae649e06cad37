/*
Package authsdk is the client SDK and shared wire types for the shopauth
service.

# SDKClient vs Session

  - SDKClient: public endpoints (registration, sign-in, providers, health)
  - Session: calls made on behalf of a signed-in user

Create an SDKClient and sign in to obtain a Session:

	client := authsdk.NewSDKClient("https://shop.example.com")

	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "UserPassword123!",
		ConfirmPassword: "UserPassword123!",
	})

	session, err := client.SignInWithCredentials(ctx, "alice@example.com", "UserPassword123!")

	me, err := session.Me(ctx)       // id, email, name and role
	err = session.SignOut(ctx)

# Errors

Every non-2xx response is returned as an *APIError carrying the status code,
a stable error code and a human readable description. Validation failures
also carry per-field messages:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeValidation {
		for field, msg := range apiErr.Fields {
			...
		}
	}

Failed sign-ins always produce the same invalid_credentials error whether the
email is unknown or the password is wrong.

The server uses the same APIError values to write its responses, so the wire
format is defined in one place.
*/
package authsdk
