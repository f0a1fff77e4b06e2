//go:build gomock || generate

// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

//go:generate sh -c "go run go.uber.org/mock/mockgen -build_flags=\"-tags=gomock\" -package nettap -self_package github.com/bassosimone/nettap -destination mock_tap_test.go github.com/bassosimone/nettap Policy,Matcher,SinkHandle"
