/*
Package hostmock provides a pretend host for waPC calls.

It lets tests assert exactly what the tarmac backend sends to the host, and
script what the host answers, without a real runtime.

Quick start

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "tarmac",
	  ExpectedCapability: "sql",
	  Handler: func(function string, payload []byte) ([]byte, error) {
	    // decode the request, build a response
	    return resp, nil
	  },
	})

	e := tarmac.NewEngine(tarmac.Config{HostCall: m.HostCall})

Behavior

  - If Fail is true, HostCall returns Error, or ErrOperationFailed when Error is nil.
  - Expected namespace, capability and function are enforced only when set.
  - PayloadValidator runs before the response is produced.
  - Handler, when set, produces the response from the function and payload;
    otherwise Response provides the bytes, or nil is returned.
  - Every call is recorded, including rejected ones, and can be read with Calls.

A Mock is safe for concurrent use.
*/
package hostmock
