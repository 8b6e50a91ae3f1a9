/*
Package logger provides logging functionality to the retention service by defining the required behavior in [Logger]
and providing an implementation of it with [StdLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
LogLevel is the type to use to represent those levels.
An implementation of Logger may be initialized at a certain [LogLevel]
and only emit messages at or above that level of importance.
For example, [StdLogger] accepts a [LogLevel],
and if initialized with [LogLevelWarn],
only [*StdLogger.Warn], [*StdLogger.Error], and [*StdLogger.Fatal] produce messages.

# StdLogger

The [StdLogger] provides all the logging functionality needed for a retention service.
It is the implementation of [Logger] returned by the [New] function.

Log messages emitted by [StdLogger] are composed of a few parts:
  - timestamp
  - log level
  - call site
  - message
  - log context

Here's an example:

	2022/04/28 15:55:21 [DEBUG] lifecycle/handler.go:43 'account suspended' log_context: {"user":{"id":"4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10"}}

The file, line number, and parent directory of where a [StdLogger] comprise the call site.
The message is the actual string passed into the [StdLogger] method, in this example, [*StdLogger.Debug].
Lastly, the log context is a JSON-encoded [*LogContext].
The last component allows for including additional data inessential to the message proper,
but provides a fuller picture of the application state at the time of logging.

# SkipLogger

Sometimes, especially with internal packages, the file and line number in a log needs to be configurable.
[SkipLogger] provides additional configuration functionality by setting the number of frames to skip
back in order to reach the desired caller.
*/
package logger
