/*
 * Copyright 2022 Michael Graff.
 *
 * Licensed under the Apache License, Version 2.0 (the "License")
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package usertoken issues and verifies the identity tokens passed
// between services.  One service authenticates users and mints RS256
// tokens with an Issuer; every other service checks them offline with
// a Verifier, using the public key published by a Publisher.
//
// Key material is read from PEM through a KeySource.  The default
// FileSource parses the PEM files on every call, so replacing the
// files on disk takes effect on the next operation without a restart.
//
// Verification failures come in two flavors: ErrExpiredToken when the
// token has simply run out, and ErrInvalidToken for everything else.
// Callers usually want to show a "log in again" prompt for the first.
package usertoken
