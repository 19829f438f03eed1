package intercept

import "github.com/leonardotrapani/voicebridge/internal/host"

// registry lists every entry point the interceptor manages, in install order.
func (i *Interceptor) registry() []*entry {
	return []*entry{
		{target: host.TargetMediaElement, member: host.MemberSrc, wrap: i.wrapSrc},
		{target: host.TargetElement, member: host.MemberSetAttribute, wrap: i.wrapSetAttribute},
		{target: host.TargetMediaElement, member: host.MemberPlay, wrap: i.wrapPlay},
		{target: host.TargetAudioContext, member: host.MemberResume, wrap: i.wrapInert},
		{target: host.TargetAudioNode, member: host.MemberConnect, wrap: i.wrapInert},
		{target: host.TargetMediaElement, member: host.MemberVolume, wrap: i.forceWhenSilent(0.0)},
		{target: host.TargetMediaElement, member: host.MemberMuted, wrap: i.forceWhenSilent(true)},
		{target: host.TargetMediaElement, member: host.MemberAutoplay, wrap: i.forceWhenSilent(false)},
	}
}

func (i *Interceptor) wrapSrc(orig host.Descriptor) host.Descriptor {
	return host.Descriptor{
		Set: func(el *host.Element, v any) {
			if s, ok := v.(string); ok && IsResourceHandle(s) {
				if i.flag.Active() {
					Suppress(el)
				}
				i.emit(s, el)
			}
			if orig.Set != nil {
				orig.Set(el, v)
			}
		},
		Call: orig.Call,
	}
}

func (i *Interceptor) wrapSetAttribute(orig host.Descriptor) host.Descriptor {
	return host.Descriptor{
		Set: orig.Set,
		Call: func(recv any, args ...any) error {
			if el, ok := recv.(*host.Element); ok && len(args) == 2 {
				name, _ := args[0].(string)
				value, _ := args[1].(string)
				if name == "src" && IsResourceHandle(value) {
					if i.flag.Active() {
						Suppress(el)
					}
					i.emit(value, el)
				}
			}
			if orig.Call == nil {
				return nil
			}
			return orig.Call(recv, args...)
		},
	}
}

// wrapPlay turns play into an already-resolved no-op in silent mode.
func (i *Interceptor) wrapPlay(orig host.Descriptor) host.Descriptor {
	return host.Descriptor{
		Set: orig.Set,
		Call: func(recv any, args ...any) error {
			if i.flag.Active() {
				if el, ok := recv.(*host.Element); ok {
					Suppress(el)
				}
				i.log.Debug("play suppressed")
				return nil
			}
			if orig.Call == nil {
				return nil
			}
			return orig.Call(recv, args...)
		},
	}
}

// wrapInert is used for audio graph resume and connect.
func (i *Interceptor) wrapInert(orig host.Descriptor) host.Descriptor {
	return host.Descriptor{
		Set: orig.Set,
		Call: func(recv any, args ...any) error {
			if i.flag.Active() {
				i.log.Debug("audio graph call suppressed")
				return nil
			}
			if orig.Call == nil {
				return nil
			}
			return orig.Call(recv, args...)
		},
	}
}

// forceWhenSilent replaces any assigned value with forced while silent mode is
// on. The element's pre-suppression state is recorded first so teardown can
// put it back.
func (i *Interceptor) forceWhenSilent(forced any) func(host.Descriptor) host.Descriptor {
	return func(orig host.Descriptor) host.Descriptor {
		return host.Descriptor{
			Set: func(el *host.Element, v any) {
				if orig.Set == nil {
					return
				}
				if i.flag.Active() {
					remember(el)
					v = forced
				}
				orig.Set(el, v)
			},
			Call: orig.Call,
		}
	}
}

func remember(el *host.Element) {
	if _, ok := el.Annotation(originalStateKey); !ok {
		el.Annotate(originalStateKey, OriginalState{Volume: el.Volume(), Muted: el.Muted()})
	}
}
